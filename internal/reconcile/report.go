package reconcile

import (
	"fmt"
	"time"

	"github.com/preston-bernstein/fixture-calendar-service/internal/domain/calendars"
)

// Failure is one remote write that did not succeed.
type Failure struct {
	Op      string `json:"op"`
	GameID  string `json:"gameId,omitempty"`
	EventID string `json:"eventId,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Report summarizes one reconciliation run for one calendar type.
type Report struct {
	CalendarType      calendars.Type `json:"calendarType"`
	CalendarID        string         `json:"calendarId,omitempty"`
	Created           int            `json:"created"`
	Updated           int            `json:"updated"`
	Deleted           int            `json:"deleted"`
	DuplicatesRemoved int            `json:"duplicatesRemoved"`
	Unchanged         int            `json:"unchanged"`
	Foreign           int            `json:"foreign"`
	Failures          []Failure      `json:"failures,omitempty"`
	Aborted           bool           `json:"aborted"`
	StartedAt         time.Time      `json:"startedAt"`
	Duration          time.Duration  `json:"duration"`
}

// Changed reports whether the run wrote anything remotely.
func (r Report) Changed() bool {
	return r.Created+r.Updated+r.Deleted+r.DuplicatesRemoved > 0
}

// String is a one-line summary used in logs and the CLI.
func (r Report) String() string {
	s := fmt.Sprintf("%s: created=%d updated=%d deleted=%d duplicates=%d unchanged=%d foreign=%d failures=%d",
		r.CalendarType, r.Created, r.Updated, r.Deleted, r.DuplicatesRemoved, r.Unchanged, r.Foreign, len(r.Failures))
	if r.Aborted {
		s += " aborted"
	}
	return s
}

func (r *Report) fail(op, gameID, eventID string, err error) {
	r.Failures = append(r.Failures, Failure{
		Op:      op,
		GameID:  gameID,
		EventID: eventID,
		Message: err.Error(),
		Err:     err,
	})
}
