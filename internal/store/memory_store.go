package store

import (
	"context"
	"sort"
	"sync"

	"github.com/preston-bernstein/fixture-calendar-service/internal/domain/calendars"
	"github.com/preston-bernstein/fixture-calendar-service/internal/domain/games"
	"github.com/preston-bernstein/fixture-calendar-service/internal/reconcile"
)

type outcomeKey struct {
	gameID int64
	typ    calendars.Type
}

// MemoryStore keeps games and their published event ids in memory.
type MemoryStore struct {
	mu     sync.RWMutex
	games  map[int64]games.Game
	byKey  map[games.BusinessKey]int64
	events map[outcomeKey]string
	nextID int64
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games:  make(map[int64]games.Game),
		byKey:  make(map[games.BusinessKey]int64),
		events: make(map[outcomeKey]string),
	}
}

// ListGames returns all games ordered by id.
func (s *MemoryStore) ListGames() []games.Game {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]games.Game, 0, len(s.games))
	for _, g := range s.games {
		result = append(result, g)
	}
	sortByID(result)
	return result
}

// GetGame retrieves a game by ID.
func (s *MemoryStore) GetGame(id int64) (games.Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[id]
	return g, ok
}

// SetGames replaces the existing games with a new set. Games keep their ids.
func (s *MemoryStore) SetGames(gs []games.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.games = make(map[int64]games.Game, len(gs))
	s.byKey = make(map[games.BusinessKey]int64, len(gs))
	s.nextID = 0
	for _, g := range gs {
		s.put(g)
	}
}

// Upsert inserts or updates games matched by business key and returns them with
// ids assigned.
func (s *MemoryStore) Upsert(ctx context.Context, gs []games.Game) ([]games.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]games.Game, 0, len(gs))
	for _, g := range gs {
		if id, ok := s.byKey[g.Key]; ok {
			g.ID = id
		} else if g.ID <= 0 {
			g.ID = s.nextID + 1
		}
		s.put(g)
		out = append(out, g)
	}
	return out, nil
}

// LoadRelevant implements reconcile.GameRepository.
func (s *MemoryStore) LoadRelevant(ctx context.Context, typ calendars.Type) ([]games.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []games.Game
	for _, g := range s.games {
		if typ.Relevant(g) {
			out = append(out, g)
		}
	}
	sortByID(out)
	return out, nil
}

// RecordOutcome implements reconcile.OutcomeRecorder.
func (s *MemoryStore) RecordOutcome(ctx context.Context, typ calendars.Type, outcome reconcile.Outcome) error {
	gameID, eventID, err := OutcomeParts(outcome)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[outcomeKey{gameID: gameID, typ: typ}] = eventID
	return nil
}

// EventID returns the last remote event id recorded for a game on a calendar.
func (s *MemoryStore) EventID(gameID int64, typ calendars.Type) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.events[outcomeKey{gameID: gameID, typ: typ}]
	return id, ok
}

func (s *MemoryStore) put(g games.Game) {
	if prev, ok := s.games[g.ID]; ok && prev.Key != g.Key {
		delete(s.byKey, prev.Key)
	}
	s.games[g.ID] = g
	s.byKey[g.Key] = g.ID
	if g.ID > s.nextID {
		s.nextID = g.ID
	}
}

func sortByID(gs []games.Game) {
	sort.Slice(gs, func(i, j int) bool { return gs[i].ID < gs[j].ID })
}
