// Package scheduler triggers reconciliation of every configured calendar type on a
// cron schedule or on demand.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/preston-bernstein/fixture-calendar-service/internal/auth"
	"github.com/preston-bernstein/fixture-calendar-service/internal/domain/calendars"
	"github.com/preston-bernstein/fixture-calendar-service/internal/logging"
	"github.com/preston-bernstein/fixture-calendar-service/internal/metrics"
	"github.com/preston-bernstein/fixture-calendar-service/internal/reconcile"
)

const (
	defaultSchedule    = "@every 15m"
	defaultParallelism = 2
	unreadyAfter       = 3
)

// Runner reconciles one calendar type.
type Runner interface {
	Run(ctx context.Context, typ calendars.Type) (reconcile.Report, error)
}

// Config controls when and how widely runs happen.
type Config struct {
	Schedule    string
	Types       []calendars.Type
	Parallelism int
	RunOnStart  bool
}

// Status describes the recent health of the scheduler.
type Status struct {
	ConsecutiveFailures int       `json:"consecutiveFailures"`
	LastError           string    `json:"lastError,omitempty"`
	LastAttempt         time.Time `json:"lastAttempt"`
	LastSuccess         time.Time `json:"lastSuccess"`
}

// IsReady reports whether the scheduler is not failing repeatedly.
func (s Status) IsReady() bool {
	return s.ConsecutiveFailures < unreadyAfter
}

// Cycle is the result of one RunAll.
type Cycle struct {
	StartedAt time.Time                 `json:"startedAt"`
	Duration  time.Duration             `json:"duration"`
	Skipped   bool                      `json:"skipped"`
	Error     string                    `json:"error,omitempty"`
	Reports   []reconcile.Report        `json:"reports"`
	Errors    map[calendars.Type]string `json:"errors,omitempty"`
	err       error
	errs      map[calendars.Type]error
}

// Err joins the per-type errors of the cycle, if any.
func (c Cycle) Err() error {
	errs := []error{c.err}
	for typ, err := range c.errs {
		errs = append(errs, fmt.Errorf("%s: %w", typ, err))
	}
	return errors.Join(errs...)
}

// Scheduler owns the cron loop and the record of recent runs.
type Scheduler struct {
	runner      Runner
	tokens      auth.TokenProvider
	logger      *slog.Logger
	metrics     *metrics.Recorder
	schedule    string
	types       []calendars.Type
	parallelism int
	runOnStart  bool
	now         func() time.Time

	cron     *cron.Cron
	startMu  sync.Mutex
	started  bool
	stopOnce sync.Once
	initial  sync.WaitGroup

	statusMu sync.RWMutex
	status   Status
	reports  map[calendars.Type]reconcile.Report
}

// New validates the schedule and builds a Scheduler. tokens may be nil when the
// backend needs no credentials.
func New(runner Runner, tokens auth.TokenProvider, logger *slog.Logger, recorder *metrics.Recorder, cfg Config) (*Scheduler, error) {
	schedule := cfg.Schedule
	if schedule == "" {
		schedule = defaultSchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	parallelism := cfg.Parallelism
	if parallelism <= 0 {
		parallelism = defaultParallelism
	}
	types := cfg.Types
	if len(types) == 0 {
		types = calendars.All()
	}
	return &Scheduler{
		runner:      runner,
		tokens:      tokens,
		logger:      logger,
		metrics:     recorder,
		schedule:    schedule,
		types:       append([]calendars.Type(nil), types...),
		parallelism: parallelism,
		runOnStart:  cfg.RunOnStart,
		now:         time.Now,
		reports:     make(map[calendars.Type]reconcile.Report),
	}, nil
}

// Start runs the cron loop until ctx is cancelled or Stop is called. A run that is
// still going when the next tick fires causes that tick to be skipped.
func (s *Scheduler) Start(ctx context.Context) {
	s.startMu.Lock()
	defer s.startMu.Unlock()
	if s.started {
		return
	}
	s.started = true

	clog := cronLogger{logger: s.logger}
	s.cron = cron.New(
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)
	// Validated in New.
	_, _ = s.cron.AddFunc(s.schedule, func() { s.RunAll(ctx) })
	s.cron.Start()
	logging.Info(s.logger, "scheduler started", "schedule", s.schedule, "types", len(s.types))

	if s.runOnStart {
		s.initial.Add(1)
		go func() {
			defer s.initial.Done()
			s.RunAll(ctx)
		}()
	}
	go func() {
		<-ctx.Done()
		_ = s.Stop(context.Background())
	}()
}

// Stop halts the cron loop and waits for in-flight runs to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.startMu.Lock()
	c := s.cron
	s.startMu.Unlock()
	if c == nil {
		return nil
	}
	var err error
	s.stopOnce.Do(func() {
		cronDone := c.Stop()
		done := make(chan struct{})
		go func() {
			<-cronDone.Done()
			s.initial.Wait()
			close(done)
		}()
		select {
		case <-done:
			logging.Info(s.logger, "scheduler stopped")
		case <-ctx.Done():
			err = ctx.Err()
		}
	})
	return err
}

// RunAll reconciles every configured calendar type, several at a time. It never
// panics or returns an error; failures land in the cycle, the status and the logs.
func (s *Scheduler) RunAll(ctx context.Context) Cycle {
	start := s.now()
	s.recordAttempt(start)
	cycle := Cycle{StartedAt: start, Errors: map[calendars.Type]string{}, errs: map[calendars.Type]error{}}

	if err := s.checkToken(ctx); err != nil {
		cycle.Skipped = true
		cycle.err = err
		cycle.Error = err.Error()
		cycle.Duration = s.now().Sub(start)
		logging.Error(s.logger, "sync skipped: no usable access token", err)
		s.recordFailure(err, start)
		s.metrics.RecordSchedulerCycle(cycle.Duration, err)
		return cycle
	}

	var mu sync.Mutex
	reports := make([]reconcile.Report, len(s.types))
	g := new(errgroup.Group)
	g.SetLimit(s.parallelism)
	for i, typ := range s.types {
		g.Go(func() error {
			report, err := s.runType(ctx, typ)
			mu.Lock()
			defer mu.Unlock()
			reports[i] = report
			if err != nil {
				cycle.errs[typ] = err
				cycle.Errors[typ] = err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()
	cycle.Reports = reports

	cycle.Duration = s.now().Sub(start)
	err := cycle.Err()
	s.metrics.RecordSchedulerCycle(cycle.Duration, err)
	if err != nil {
		s.recordFailure(err, start)
		logging.Warn(s.logger, "sync cycle finished with errors",
			"failed_types", len(cycle.errs),
			logging.FieldDurationMS, cycle.Duration.Milliseconds(),
		)
		return cycle
	}
	s.recordSuccess(start)
	logging.Info(s.logger, "sync cycle finished",
		logging.FieldCount, len(cycle.Reports),
		logging.FieldDurationMS, cycle.Duration.Milliseconds(),
	)
	return cycle
}

// RunType reconciles a single calendar type on demand.
func (s *Scheduler) RunType(ctx context.Context, typ calendars.Type) (reconcile.Report, error) {
	if err := s.checkToken(ctx); err != nil {
		return reconcile.Report{CalendarType: typ}, err
	}
	return s.runType(ctx, typ)
}

func (s *Scheduler) runType(ctx context.Context, typ calendars.Type) (report reconcile.Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reconcile %s panicked: %v", typ, r)
			report = reconcile.Report{CalendarType: typ, Aborted: true}
			logging.Error(s.logger, "reconcile panicked", err, logging.FieldCalendarType, string(typ))
		}
		s.metrics.RecordSyncRun(string(typ), report.Duration, countsOf(report), err)
		s.storeReport(report)
	}()

	report, err = s.runner.Run(ctx, typ)
	if err != nil {
		logging.Error(s.logger, "reconcile failed", err, logging.FieldCalendarType, string(typ))
	}
	return report, err
}

func (s *Scheduler) checkToken(ctx context.Context) error {
	if s.tokens == nil {
		return nil
	}
	_, err := s.tokens.CurrentToken(ctx)
	return err
}

func countsOf(r reconcile.Report) metrics.SyncCounts {
	return metrics.SyncCounts{
		Created:    r.Created,
		Updated:    r.Updated,
		Deleted:    r.Deleted,
		Duplicates: r.DuplicatesRemoved,
		Unchanged:  r.Unchanged,
		Failures:   len(r.Failures),
	}
}

func (s *Scheduler) storeReport(r reconcile.Report) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.reports[r.CalendarType] = r
}

func (s *Scheduler) recordAttempt(at time.Time) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.LastAttempt = at
}

func (s *Scheduler) recordSuccess(at time.Time) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.ConsecutiveFailures = 0
	s.status.LastError = ""
	s.status.LastSuccess = at
}

func (s *Scheduler) recordFailure(err error, at time.Time) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.ConsecutiveFailures++
	if err != nil {
		s.status.LastError = err.Error()
	}
	s.status.LastAttempt = at
}

// Status returns a snapshot of the scheduler's recent health.
func (s *Scheduler) Status() Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

// Reports returns the most recent report per calendar type.
func (s *Scheduler) Reports() map[calendars.Type]reconcile.Report {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return maps.Clone(s.reports)
}

// Types lists the calendar types this scheduler reconciles.
func (s *Scheduler) Types() []calendars.Type {
	return append([]calendars.Type(nil), s.types...)
}
