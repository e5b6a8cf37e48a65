// Package calendars describes the remote calendar buckets games are published to.
package calendars

import (
	"fmt"
	"strings"
	"time"

	"github.com/preston-bernstein/fixture-calendar-service/internal/domain/games"
)

// Type identifies one remote calendar and which game date it is built from.
type Type string

const (
	Fixtures     Type = "fixtures"
	GeneralSale  Type = "general-sale"
	PrioritySale Type = "priority-sale"
	SeasonTicket Type = "season-ticket"
	Attended     Type = "attended"
	Unattended   Type = "unattended"
)

const (
	matchDuration = 2 * time.Hour
	saleDuration  = time.Hour
)

var all = []Type{Fixtures, GeneralSale, PrioritySale, SeasonTicket, Attended, Unattended}

// All returns every known calendar type in a stable order.
func All() []Type {
	out := make([]Type, len(all))
	copy(out, all)
	return out
}

// Parse resolves a calendar type from its string form.
func Parse(raw string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range all {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown calendar type %q", raw)
}

func (t Type) String() string { return string(t) }

// DateOf returns the game date this calendar publishes, or nil if the game
// has none or does not belong on this calendar.
func (t Type) DateOf(g games.Game) *time.Time {
	switch t {
	case Fixtures:
		return g.DatePlayed
	case GeneralSale:
		return g.GeneralSaleDate
	case PrioritySale:
		return g.PrioritySaleDate
	case SeasonTicket:
		return g.SeasonTicketDate
	case Attended:
		if g.Attended {
			return g.DatePlayed
		}
	case Unattended:
		if !g.Attended {
			return g.DatePlayed
		}
	}
	return nil
}

// Relevant reports whether the game produces an event on this calendar.
func (t Type) Relevant(g games.Game) bool {
	return t.DateOf(g) != nil
}

// Duration is the length of events on this calendar.
func (t Type) Duration() time.Duration {
	if t.IsSale() {
		return saleDuration
	}
	return matchDuration
}

// IsSale reports whether the calendar tracks ticket sale dates rather than matches.
func (t Type) IsSale() bool {
	switch t {
	case GeneralSale, PrioritySale, SeasonTicket:
		return true
	}
	return false
}

// Label is the human readable prefix used in event titles for sale calendars.
func (t Type) Label() string {
	switch t {
	case GeneralSale:
		return "General sale"
	case PrioritySale:
		return "Priority sale"
	case SeasonTicket:
		return "Season ticket sale"
	case Attended:
		return "Attended"
	case Unattended:
		return "Unattended"
	default:
		return "Fixture"
	}
}
