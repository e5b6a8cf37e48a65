// Package format renders games into remote event payloads and reads the game
// reference back out of fetched events.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/preston-bernstein/fixture-calendar-service/internal/calendar"
	"github.com/preston-bernstein/fixture-calendar-service/internal/domain/calendars"
	"github.com/preston-bernstein/fixture-calendar-service/internal/domain/games"
)

const dateLayout = "Mon 2 Jan 2006 15:04"

// Formatter builds event payloads. It is pure: the same game and calendar type
// always produce the same payload.
type Formatter struct {
	loc *time.Location
}

// New returns a formatter rendering dates in loc (UTC when nil).
func New(loc *time.Location) Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return Formatter{loc: loc}
}

// Format renders the payload for a game on the given calendar. ok is false when
// the game has no relevant date for that calendar.
func (f Formatter) Format(typ calendars.Type, g games.Game) (calendar.Payload, bool) {
	date := typ.DateOf(g)
	if date == nil {
		return calendar.Payload{}, false
	}
	// Remote calendars keep whole seconds only.
	start := date.In(f.loc).Truncate(time.Second)
	return calendar.Payload{
		Title:       f.title(typ, g),
		Description: f.description(typ, g),
		Start:       start,
		End:         start.Add(typ.Duration()),
		GameID:      g.EventKey(),
	}, true
}

func (f Formatter) title(typ calendars.Type, g games.Game) string {
	var b strings.Builder
	if typ.IsSale() {
		b.WriteString(typ.Label())
		b.WriteString(": ")
	}
	b.WriteString(g.Key.Opponents)
	b.WriteString(" (")
	b.WriteString(g.Key.Location.Short())
	b.WriteString(")")
	if !typ.IsSale() && strings.TrimSpace(g.Result) != "" {
		b.WriteString(" ")
		b.WriteString(strings.TrimSpace(g.Result))
	}
	return b.String()
}

func (f Formatter) description(typ calendars.Type, g games.Game) string {
	lines := []string{
		"Competition: " + g.Key.Competition,
		"Season: " + games.SeasonLabel(g.Key.Season),
		"Venue: " + venue(g.Key.Location),
	}
	if typ.IsSale() && g.DatePlayed != nil {
		lines = append(lines, "Match: "+g.DatePlayed.In(f.loc).Format(dateLayout))
	}
	if result := strings.TrimSpace(g.Result); result != "" {
		lines = append(lines, "Result: "+result)
	}
	return strings.Join(lines, "\n")
}

func venue(l games.Location) string {
	if l == games.LocationAway {
		return "Away"
	}
	return "Home"
}

// ExtractGameID returns the game reference stored on a remote event. Events
// without a well-formed reference are foreign and must never be modified.
func ExtractGameID(ev calendar.Event) (string, bool) {
	raw, ok := ev.Property(calendar.GameIDProperty)
	if !ok {
		return "", false
	}
	id, ok := games.ParseEventKey(raw)
	if !ok {
		return "", false
	}
	return games.Game{ID: id}.EventKey(), true
}

// Stale reports whether the remote event differs from the payload it should carry.
func Stale(ev calendar.Event, want calendar.Payload) bool {
	return ev.Title != want.Title ||
		ev.Description != want.Description ||
		!ev.Start.Equal(want.Start) ||
		!ev.End.Equal(want.End)
}

// Describe is a short human form of a payload for logs.
func Describe(p calendar.Payload) string {
	return fmt.Sprintf("%s @ %s", p.Title, p.Start.Format(time.RFC3339))
}
