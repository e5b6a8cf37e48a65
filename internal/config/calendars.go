package config

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/preston-bernstein/fixture-calendar-service/internal/domain/calendars"
)

// CalendarIDs maps calendar types to remote calendar ids.
type CalendarIDs map[calendars.Type]string

// UnmarshalText parses "fixtures=abc,general-sale=def".
func (c *CalendarIDs) UnmarshalText(text []byte) error {
	out := CalendarIDs{}
	for _, pair := range strings.Split(string(text), ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, id, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(id) == "" {
			return fmt.Errorf("%s: expected type=calendarId, got %q", envCalendarIDs, pair)
		}
		typ, err := calendars.Parse(name)
		if err != nil {
			return fmt.Errorf("%s: %w", envCalendarIDs, err)
		}
		out[typ] = strings.TrimSpace(id)
	}
	*c = out
	return nil
}

// CalendarID resolves a calendar type; it satisfies reconcile.Directory.
func (c CalendarIDs) CalendarID(typ calendars.Type) (string, bool) {
	id, ok := c[typ]
	return id, ok && id != ""
}

// Types lists configured calendar types in canonical order.
func (c CalendarIDs) Types() []calendars.Type {
	var out []calendars.Type
	for _, typ := range calendars.All() {
		if _, ok := c.CalendarID(typ); ok {
			out = append(out, typ)
		}
	}
	return out
}

// Merge returns c overlaid with override; override wins per type.
func (c CalendarIDs) Merge(override CalendarIDs) CalendarIDs {
	out := maps.Clone(c)
	if out == nil {
		out = CalendarIDs{}
	}
	maps.Copy(out, override)
	return out
}

// String renders the mapping in the CALENDAR_IDS form.
func (c CalendarIDs) String() string {
	keys := slices.Sorted(maps.Keys(c))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, string(k)+"="+c[k])
	}
	return strings.Join(parts, ",")
}

type calendarFile struct {
	Calendars map[string]string `yaml:"calendars"`
}

// LoadCalendarFile reads a YAML document of the form
//
//	calendars:
//	  fixtures: abc@group.calendar.google.com
func LoadCalendarFile(path string) (CalendarIDs, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", envCalendarsFile, err)
	}
	var doc calendarFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%s: decode %s: %w", envCalendarsFile, path, err)
	}
	out := CalendarIDs{}
	for name, id := range doc.Calendars {
		typ, err := calendars.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", envCalendarsFile, err)
		}
		if id = strings.TrimSpace(id); id != "" {
			out[typ] = id
		}
	}
	return out, nil
}
