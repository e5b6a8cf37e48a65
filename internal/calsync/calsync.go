// Package calsync implements the calsync command: importing fixtures into the game
// store and running reconciliation once outside the service.
package calsync

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/preston-bernstein/fixture-calendar-service/internal/config"
	"github.com/preston-bernstein/fixture-calendar-service/internal/domain/calendars"
	"github.com/preston-bernstein/fixture-calendar-service/internal/metrics"
	"github.com/preston-bernstein/fixture-calendar-service/internal/server"
	"github.com/preston-bernstein/fixture-calendar-service/internal/store"
)

// ErrNothingToDo is returned when no action flag was given.
var ErrNothingToDo = errors.New("nothing to do: pass -import, -once or -type")

// Options holds the parsed command line.
type Options struct {
	Import string
	Once   bool
	Type   string
	DBPath string
	DryRun bool
}

// ParseOptions parses CLI flags into Options.
func ParseOptions(fs *flag.FlagSet, args []string) (Options, error) {
	var opts Options
	fs.StringVar(&opts.Import, "import", "", "fixtures YAML file to upsert into the game store")
	fs.BoolVar(&opts.Once, "once", false, "reconcile every configured calendar type once and exit")
	fs.StringVar(&opts.Type, "type", "", "reconcile a single calendar type and exit")
	fs.StringVar(&opts.DBPath, "db-path", "", "game database path (overrides DATABASE_PATH)")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "validate the import file without writing")
	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}
	opts.Import = strings.TrimSpace(opts.Import)
	opts.Type = strings.TrimSpace(opts.Type)

	if opts.Import == "" && !opts.Once && opts.Type == "" {
		return Options{}, ErrNothingToDo
	}
	if opts.Once && opts.Type != "" {
		return Options{}, errors.New("-once and -type are mutually exclusive")
	}
	if opts.Type != "" {
		if _, err := calendars.Parse(opts.Type); err != nil {
			return Options{}, err
		}
	}
	if opts.DryRun && opts.Import == "" {
		return Options{}, errors.New("-dry-run only applies to -import")
	}
	return opts, nil
}

// Run executes opts against the stack described by cfg and writes a summary to out.
func Run(ctx context.Context, opts Options, cfg config.Config, logger *slog.Logger, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if opts.DBPath != "" {
		cfg.DatabasePath = opts.DBPath
	}

	if opts.DryRun {
		gs, err := store.LoadFixtureFile(opts.Import)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %d games valid\n", opts.Import, len(gs))
		return nil
	}

	comps, err := server.BuildComponents(ctx, cfg, logger, metrics.NewRecorder())
	if err != nil {
		return err
	}
	defer comps.Close()

	if opts.Import != "" {
		stored, err := server.ImportFixtures(ctx, comps.Repository, opts.Import, logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "imported %d games from %s\n", len(stored), opts.Import)
	}

	switch {
	case opts.Type != "":
		typ, _ := calendars.Parse(opts.Type)
		report, err := comps.Scheduler.RunType(ctx, typ)
		fmt.Fprintln(out, report.String())
		return err
	case opts.Once:
		cycle := comps.Scheduler.RunAll(ctx)
		if cycle.Skipped {
			return cycle.Err()
		}
		for _, report := range cycle.Reports {
			fmt.Fprintln(out, report.String())
		}
		return cycle.Err()
	}
	return nil
}
