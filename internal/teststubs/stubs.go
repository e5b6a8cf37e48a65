package teststubs

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/preston-bernstein/fixture-calendar-service/internal/domain/calendars"
	"github.com/preston-bernstein/fixture-calendar-service/internal/domain/games"
	"github.com/preston-bernstein/fixture-calendar-service/internal/reconcile"
)

// StubRunner is a test double for scheduler.Runner.
type StubRunner struct {
	Errs   map[calendars.Type]error
	Panics map[calendars.Type]bool
	Calls  atomic.Int32
	Notify chan struct{}
	// Release, when set, blocks every run until it is closed.
	Release chan struct{}
	// Delays holds runs of a type back before they return.
	Delays map[calendars.Type]time.Duration

	mu  sync.Mutex
	ran []calendars.Type
}

// Run records the call and returns the configured error for typ.
func (s *StubRunner) Run(ctx context.Context, typ calendars.Type) (reconcile.Report, error) {
	if s.Notify != nil {
		select {
		case <-s.Notify:
		default:
			close(s.Notify)
		}
	}
	s.Calls.Add(1)
	s.mu.Lock()
	s.ran = append(s.ran, typ)
	s.mu.Unlock()
	if s.Release != nil {
		select {
		case <-s.Release:
		case <-ctx.Done():
			return reconcile.Report{CalendarType: typ, Aborted: true}, ctx.Err()
		}
	}
	if d := s.Delays[typ]; d > 0 {
		time.Sleep(d)
	}
	if s.Panics[typ] {
		panic("stub runner panic")
	}
	report := reconcile.Report{CalendarType: typ, Created: 1}
	if err := s.Errs[typ]; err != nil {
		report.Aborted = true
		return report, err
	}
	return report, nil
}

// Ran returns the calendar types run so far, in call order.
func (s *StubRunner) Ran() []calendars.Type {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]calendars.Type(nil), s.ran...)
}

// StubTokenProvider is a test double for auth.TokenProvider.
type StubTokenProvider struct {
	Token string
	Err   error
	Calls atomic.Int32
}

// CurrentToken returns the configured token or error.
func (s *StubTokenProvider) CurrentToken(context.Context) (string, error) {
	s.Calls.Add(1)
	return s.Token, s.Err
}

// StubRepository is a test double for reconcile.GameRepository.
type StubRepository struct {
	Games []games.Game
	Err   error
}

// LoadRelevant returns the configured games that have a date for typ.
func (s *StubRepository) LoadRelevant(_ context.Context, typ calendars.Type) ([]games.Game, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	var out []games.Game
	for _, g := range s.Games {
		if typ.Relevant(g) {
			out = append(out, g)
		}
	}
	return out, nil
}
