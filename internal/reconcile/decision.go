package reconcile

import (
	"github.com/preston-bernstein/fixture-calendar-service/internal/calendar"
	"github.com/preston-bernstein/fixture-calendar-service/internal/domain/games"
)

// Decision is what one reconciliation pass decided for a single game or remote
// event. It is one of Create, Update, Delete or NoOp.
type Decision interface {
	decision()
}

// Create publishes a game that has no remote event yet.
type Create struct {
	Game    games.Game
	Payload calendar.Payload
}

// Update refreshes a remote event whose content no longer matches its game.
type Update struct {
	Game    games.Game
	EventID string
	Payload calendar.Payload
}

// DeleteReason says why a managed remote event is removed.
type DeleteReason string

const (
	ReasonOrphan    DeleteReason = "orphan"
	ReasonDuplicate DeleteReason = "duplicate"
)

// Delete removes a managed remote event.
type Delete struct {
	EventID string
	GameID  string
	Reason  DeleteReason
}

// NoOp records a remote event that is already up to date.
type NoOp struct {
	GameID  string
	EventID string
}

func (Create) decision() {}
func (Update) decision() {}
func (Delete) decision() {}
func (NoOp) decision()   {}

// Outcome is reported for every successful remote write that leaves a game with a
// known event id. It is one of Created or Updated.
type Outcome interface {
	outcome()
}

// Created means a new remote event now represents the game.
type Created struct {
	GameID  string
	EventID string
}

// Updated means the game's existing remote event was refreshed.
type Updated struct {
	GameID  string
	EventID string
}

func (Created) outcome() {}
func (Updated) outcome() {}
