package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/preston-bernstein/fixture-calendar-service/internal/config"
	"github.com/preston-bernstein/fixture-calendar-service/internal/domain/games"
	"github.com/preston-bernstein/fixture-calendar-service/internal/logging"
	"github.com/preston-bernstein/fixture-calendar-service/internal/reconcile"
	"github.com/preston-bernstein/fixture-calendar-service/internal/store"
	"github.com/preston-bernstein/fixture-calendar-service/internal/store/sqlite"
)

// Repository is the game storage the service runs against.
type Repository interface {
	reconcile.GameRepository
	reconcile.OutcomeRecorder
	Upsert(ctx context.Context, gs []games.Game) ([]games.Game, error)
}

var openSQLite = func(ctx context.Context, path string) (Repository, func() error, error) {
	st, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	return st, st.Close, nil
}

// buildStore opens SQLite when DATABASE_PATH is set and falls back to memory.
func buildStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (Repository, func() error, error) {
	if cfg.DatabasePath == "" {
		logging.Info(logger, "using in-memory game store")
		return store.NewMemoryStore(), func() error { return nil }, nil
	}
	repo, closeFn, err := openSQLite(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open game store %s: %w", cfg.DatabasePath, err)
	}
	logging.Info(logger, "using sqlite game store", slog.String("path", cfg.DatabasePath))
	return repo, closeFn, nil
}

// ImportFixtures loads a fixtures YAML file into repo and returns the stored games.
func ImportFixtures(ctx context.Context, repo Repository, path string, logger *slog.Logger) ([]games.Game, error) {
	gs, err := store.LoadFixtureFile(path)
	if err != nil {
		return nil, err
	}
	stored, err := repo.Upsert(ctx, gs)
	if err != nil {
		return nil, fmt.Errorf("import fixtures: %w", err)
	}
	logging.Info(logger, "fixtures imported",
		slog.String("path", path),
		slog.Int(logging.FieldCount, len(stored)),
	)
	return stored, nil
}
