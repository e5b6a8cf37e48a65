// Package calendar abstracts the remote calendar service games are published to.
package calendar

import (
	"context"
	"iter"
	"time"
)

// GameIDProperty is the extended property linking a remote event to a local game.
const GameIDProperty = "gameId"

// Event is a remote calendar event as returned by the gateway.
type Event struct {
	ID                 string
	Title              string
	Description        string
	Start              time.Time
	End                time.Time
	ExtendedProperties map[string]string
}

// Property returns an extended property value, if set.
func (e Event) Property(key string) (string, bool) {
	if e.ExtendedProperties == nil {
		return "", false
	}
	v, ok := e.ExtendedProperties[key]
	return v, ok
}

// Payload is the content written to a remote event.
type Payload struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	GameID      string
}

// Gateway is the contract every remote calendar backend implements.
//
// ListEvents follows pagination transparently and yields events lazily; an error
// terminates the sequence. DeleteEvent must treat an already-deleted id as success.
type Gateway interface {
	ListEvents(ctx context.Context, calendarID string) iter.Seq2[Event, error]
	CreateEvent(ctx context.Context, calendarID string, payload Payload) (Event, error)
	UpdateEvent(ctx context.Context, calendarID, eventID string, payload Payload) error
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

// Operation names used for logging and metrics.
const (
	OpList   = "list"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)
