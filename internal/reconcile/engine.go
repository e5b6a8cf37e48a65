// Package reconcile converges one remote calendar per calendar type onto the games
// that belong on it.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/preston-bernstein/fixture-calendar-service/internal/calendar"
	"github.com/preston-bernstein/fixture-calendar-service/internal/domain/calendars"
	"github.com/preston-bernstein/fixture-calendar-service/internal/domain/games"
	"github.com/preston-bernstein/fixture-calendar-service/internal/format"
	"github.com/preston-bernstein/fixture-calendar-service/internal/logging"
)

// ErrConfigurationMissing means no remote calendar is configured for a calendar type.
var ErrConfigurationMissing = errors.New("no calendar configured for type")

// GameRepository loads the games that belong on a calendar type.
type GameRepository interface {
	LoadRelevant(ctx context.Context, typ calendars.Type) ([]games.Game, error)
}

// Directory resolves a calendar type to its remote calendar id.
type Directory interface {
	CalendarID(typ calendars.Type) (string, bool)
}

// OutcomeRecorder is told about every successful create or update so the local
// store can remember the event id it produced.
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, typ calendars.Type, outcome Outcome) error
}

// Config wires an Engine. Repository, Gateway and Calendars are required.
type Config struct {
	Repository GameRepository
	Gateway    calendar.Gateway
	Calendars  Directory
	Formatter  format.Formatter
	Outcomes   OutcomeRecorder
	Logger     *slog.Logger
}

// Engine runs reconciliation passes. Runs for the same remote calendar never
// overlap; different calendars proceed independently.
type Engine struct {
	repo      GameRepository
	gateway   calendar.Gateway
	calendars Directory
	formatter format.Formatter
	outcomes  OutcomeRecorder
	logger    *slog.Logger
	now       func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New builds an Engine from cfg.
func New(cfg Config) *Engine {
	return &Engine{
		repo:      cfg.Repository,
		gateway:   cfg.Gateway,
		calendars: cfg.Calendars,
		formatter: cfg.Formatter,
		outcomes:  cfg.Outcomes,
		logger:    cfg.Logger,
		now:       time.Now,
		locks:     make(map[string]*sync.Mutex),
	}
}

// Run reconciles the remote calendar for typ. Per-operation failures are collected
// in the report and do not stop the run. An error is returned only when the run as
// a whole could not proceed: missing configuration, an unreadable repository or
// listing, expired credentials, or cancellation.
func (e *Engine) Run(ctx context.Context, typ calendars.Type) (report Report, err error) {
	report = Report{CalendarType: typ, StartedAt: e.now()}
	defer func() { report.Duration = e.now().Sub(report.StartedAt) }()

	calendarID, ok := e.calendarID(typ)
	if !ok {
		return report, fmt.Errorf("%w %q", ErrConfigurationMissing, typ)
	}
	report.CalendarID = calendarID

	lock := e.lockFor(calendarID)
	lock.Lock()
	defer lock.Unlock()

	logger := e.logger
	if logger != nil {
		logger = logger.With(logging.FieldCalendarType, string(typ), logging.FieldCalendarID, calendarID)
	}
	ctx = logging.WithLogger(ctx, logger)

	gs, err := e.repo.LoadRelevant(ctx, typ)
	if err != nil {
		logging.Error(logger, "load games failed", err)
		return report, fmt.Errorf("load games for %s: %w", typ, err)
	}

	plan, err := BuildPlan(ctx, typ, e.formatter, gs, e.gateway.ListEvents(ctx, calendarID))
	if err != nil {
		logging.Error(logger, "listing remote events failed", err)
		report.Aborted = true
		return report, err
	}
	report.Unchanged = len(plan.Unchanged)
	report.Foreign = plan.Foreign
	logging.Debug(logger, "plan built",
		"deletes", len(plan.Deletes),
		"updates", len(plan.Updates),
		"creates", len(plan.Creates),
		"unchanged", len(plan.Unchanged),
		"foreign", plan.Foreign,
	)

	for _, d := range plan.Writes() {
		if err := ctx.Err(); err != nil {
			report.Aborted = true
			return report, err
		}
		if err := e.apply(ctx, logger, typ, calendarID, d, &report); err != nil {
			report.Aborted = true
			logging.Error(logger, "reconcile aborted", err)
			return report, err
		}
	}

	logging.Info(logger, "reconcile complete",
		"created", report.Created,
		"updated", report.Updated,
		"deleted", report.Deleted,
		"duplicates_removed", report.DuplicatesRemoved,
		"unchanged", report.Unchanged,
		"failures", len(report.Failures),
	)
	return report, nil
}

// apply executes one decision. It returns an error only when the whole run must stop.
func (e *Engine) apply(ctx context.Context, logger *slog.Logger, typ calendars.Type, calendarID string, d Decision, report *Report) error {
	switch d := d.(type) {
	case Delete:
		err := e.gateway.DeleteEvent(ctx, calendarID, d.EventID)
		if err != nil {
			return e.failed(ctx, logger, report, calendar.OpDelete, d.GameID, d.EventID, err)
		}
		if d.Reason == ReasonDuplicate {
			report.DuplicatesRemoved++
		} else {
			report.Deleted++
		}
	case Update:
		gameID := d.Game.EventKey()
		err := e.gateway.UpdateEvent(ctx, calendarID, d.EventID, d.Payload)
		if errors.Is(err, calendar.ErrRemoteNotFound) {
			logging.Warn(logger, "event vanished before update; recreating",
				logging.FieldGameID, gameID, logging.FieldEventID, d.EventID)
			return e.apply(ctx, logger, typ, calendarID, Create{Game: d.Game, Payload: d.Payload}, report)
		}
		if err != nil {
			return e.failed(ctx, logger, report, calendar.OpUpdate, gameID, d.EventID, err)
		}
		report.Updated++
		e.record(ctx, logger, typ, Updated{GameID: gameID, EventID: d.EventID})
	case Create:
		gameID := d.Game.EventKey()
		ev, err := e.gateway.CreateEvent(ctx, calendarID, d.Payload)
		if err != nil {
			return e.failed(ctx, logger, report, calendar.OpCreate, gameID, "", err)
		}
		report.Created++
		e.record(ctx, logger, typ, Created{GameID: gameID, EventID: ev.ID})
	case NoOp:
		report.Unchanged++
	}
	return nil
}

func (e *Engine) failed(ctx context.Context, logger *slog.Logger, report *Report, op, gameID, eventID string, err error) error {
	report.fail(op, gameID, eventID, err)
	switch {
	case errors.Is(err, calendar.ErrRemoteAuthExpired):
		return fmt.Errorf("%s: %w", op, err)
	case ctx.Err() != nil:
		return ctx.Err()
	}
	logging.Warn(logger, "calendar write failed",
		logging.FieldOperation, op,
		logging.FieldGameID, gameID,
		logging.FieldEventID, eventID,
		"error", err,
	)
	return nil
}

func (e *Engine) record(ctx context.Context, logger *slog.Logger, typ calendars.Type, outcome Outcome) {
	if e.outcomes == nil {
		return
	}
	if err := e.outcomes.RecordOutcome(ctx, typ, outcome); err != nil {
		logging.Warn(logger, "recording outcome failed", "error", err)
	}
}

func (e *Engine) calendarID(typ calendars.Type) (string, bool) {
	if e.calendars == nil {
		return "", false
	}
	id, ok := e.calendars.CalendarID(typ)
	return id, ok && id != ""
}

func (e *Engine) lockFor(calendarID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[calendarID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[calendarID] = lock
	}
	return lock
}

// Calendars is a fixed calendar type to remote calendar id mapping.
type Calendars map[calendars.Type]string

// CalendarID implements Directory.
func (c Calendars) CalendarID(typ calendars.Type) (string, bool) {
	id, ok := c[typ]
	return id, ok
}
