package store

import (
	"fmt"

	"github.com/preston-bernstein/fixture-calendar-service/internal/domain/games"
	"github.com/preston-bernstein/fixture-calendar-service/internal/reconcile"
)

// OutcomeParts extracts the game id and event id from a reconcile outcome.
func OutcomeParts(outcome reconcile.Outcome) (int64, string, error) {
	var gameRef, eventID string
	switch o := outcome.(type) {
	case reconcile.Created:
		gameRef, eventID = o.GameID, o.EventID
	case reconcile.Updated:
		gameRef, eventID = o.GameID, o.EventID
	default:
		return 0, "", fmt.Errorf("unsupported outcome %T", outcome)
	}
	id, ok := games.ParseEventKey(gameRef)
	if !ok {
		return 0, "", fmt.Errorf("outcome has invalid game id %q", gameRef)
	}
	if eventID == "" {
		return 0, "", fmt.Errorf("outcome for game %d has no event id", id)
	}
	return id, eventID, nil
}
