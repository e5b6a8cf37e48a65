package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/preston-bernstein/fixture-calendar-service/internal/auth"
	"github.com/preston-bernstein/fixture-calendar-service/internal/calendar"
	"github.com/preston-bernstein/fixture-calendar-service/internal/config"
	"github.com/preston-bernstein/fixture-calendar-service/internal/domain/calendars"
	"github.com/preston-bernstein/fixture-calendar-service/internal/format"
	"github.com/preston-bernstein/fixture-calendar-service/internal/ics"
	"github.com/preston-bernstein/fixture-calendar-service/internal/logging"
	"github.com/preston-bernstein/fixture-calendar-service/internal/metrics"
	"github.com/preston-bernstein/fixture-calendar-service/internal/reconcile"
	"github.com/preston-bernstein/fixture-calendar-service/internal/scheduler"
)

const memoryCalendarPrefix = "memory-"

// Components is the wired sync stack shared by the HTTP server and the CLI.
type Components struct {
	Repository Repository
	Tokens     auth.TokenProvider
	Gateway    calendar.Gateway
	Engine     *reconcile.Engine
	Scheduler  *scheduler.Scheduler
	Feeds      *ics.Exporter
	Calendars  config.CalendarIDs

	closeStore func() error
}

// BuildComponents opens storage, resolves credentials and assembles the engine and
// scheduler. Callers must Close the result.
func BuildComponents(ctx context.Context, cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*Components, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("event timezone: %w", err)
	}
	repo, closeStore, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	c := &Components{Repository: repo, closeStore: closeStore}

	if cfg.FixturesFile != "" {
		if _, err := ImportFixtures(ctx, repo, cfg.FixturesFile, logger); err != nil {
			return nil, errors.Join(err, c.Close())
		}
	}

	factory := newGatewayFactory(logger, recorder)
	if c.Tokens, err = factory.tokens(ctx, cfg); err != nil {
		return nil, errors.Join(err, c.Close())
	}
	if c.Gateway, err = factory.build(ctx, cfg, c.Tokens); err != nil {
		return nil, errors.Join(err, c.Close())
	}

	c.Calendars = calendarDirectory(cfg)
	formatter := format.New(loc)
	c.Engine = reconcile.New(reconcile.Config{
		Repository: repo,
		Gateway:    c.Gateway,
		Calendars:  c.Calendars,
		Formatter:  formatter,
		Outcomes:   repo,
		Logger:     logger,
	})
	c.Feeds = ics.NewExporter(repo, formatter)

	c.Scheduler, err = scheduler.New(c.Engine, c.Tokens, logger, recorder, scheduler.Config{
		Schedule:    cfg.Sync.Schedule,
		Types:       c.Calendars.Types(),
		Parallelism: cfg.Sync.Parallelism,
		RunOnStart:  cfg.Sync.OnStart,
	})
	if err != nil {
		return nil, errors.Join(err, c.Close())
	}
	logging.Info(logger, "sync components ready",
		slog.String("backend", cfg.Backend()),
		slog.String("calendars", c.Calendars.String()),
	)
	return c, nil
}

// Close releases storage.
func (c *Components) Close() error {
	if c == nil || c.closeStore == nil {
		return nil
	}
	return c.closeStore()
}

// calendarDirectory fills in a calendar per type for the memory backend so local
// runs work without CALENDAR_IDS.
func calendarDirectory(cfg config.Config) config.CalendarIDs {
	ids := cfg.Calendars.IDs
	if cfg.Backend() != config.BackendMemory || len(ids.Types()) > 0 {
		return ids
	}
	out := config.CalendarIDs{}
	for _, typ := range calendars.All() {
		out[typ] = memoryCalendarPrefix + typ.String()
	}
	return out
}
