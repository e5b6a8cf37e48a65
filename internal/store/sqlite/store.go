// Package sqlite persists games and their published event ids in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/preston-bernstein/fixture-calendar-service/internal/domain/calendars"
	"github.com/preston-bernstein/fixture-calendar-service/internal/domain/games"
	"github.com/preston-bernstein/fixture-calendar-service/internal/reconcile"
	"github.com/preston-bernstein/fixture-calendar-service/internal/store"
	"github.com/preston-bernstein/fixture-calendar-service/internal/store/sqlite/migrations"
)

// Store is a SQLite-backed game repository.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

const gameColumns = `id, competition, location, opponents, season,
	date_played, general_sale_date, priority_sale_date, season_ticket_date,
	result, attended`

// Open opens (creating if needed) the database at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Upsert inserts games or refreshes existing ones matched by business key and
// returns them with their database ids. Incoming ids are ignored.
func (s *Store) Upsert(ctx context.Context, gs []games.Game) ([]games.Game, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO games (
		competition, location, opponents, season,
		date_played, general_sale_date, priority_sale_date, season_ticket_date,
		result, attended, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (competition, location, opponents, season) DO UPDATE SET
		date_played = excluded.date_played,
		general_sale_date = excluded.general_sale_date,
		priority_sale_date = excluded.priority_sale_date,
		season_ticket_date = excluded.season_ticket_date,
		result = excluded.result,
		attended = excluded.attended,
		updated_at = excluded.updated_at
	RETURNING id`)
	if err != nil {
		return nil, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := s.now().UTC().UnixMilli()
	out := make([]games.Game, 0, len(gs))
	for _, g := range gs {
		var id int64
		err := stmt.QueryRowContext(ctx,
			g.Key.Competition, string(g.Key.Location), g.Key.Opponents, g.Key.Season,
			toMillis(g.DatePlayed), toMillis(g.GeneralSaleDate), toMillis(g.PrioritySaleDate), toMillis(g.SeasonTicketDate),
			g.Result, g.Attended, now,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("upsert game %s: %w", g.Key, err)
		}
		g.ID = id
		out = append(out, g)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit upsert: %w", err)
	}
	return out, nil
}

// LoadRelevant implements reconcile.GameRepository.
func (s *Store) LoadRelevant(ctx context.Context, typ calendars.Type) ([]games.Game, error) {
	where, args, err := relevance(typ)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, `SELECT `+gameColumns+` FROM games WHERE `+where+` ORDER BY id`, args...)
}

// ListGames returns every stored game ordered by id.
func (s *Store) ListGames(ctx context.Context) ([]games.Game, error) {
	return s.query(ctx, `SELECT `+gameColumns+` FROM games ORDER BY id`)
}

// GetGame loads one game by id.
func (s *Store) GetGame(ctx context.Context, id int64) (games.Game, bool, error) {
	gs, err := s.query(ctx, `SELECT `+gameColumns+` FROM games WHERE id = ?`, id)
	if err != nil || len(gs) == 0 {
		return games.Game{}, false, err
	}
	return gs[0], true, nil
}

// RecordOutcome implements reconcile.OutcomeRecorder.
func (s *Store) RecordOutcome(ctx context.Context, typ calendars.Type, outcome reconcile.Outcome) error {
	gameID, eventID, err := store.OutcomeParts(outcome)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO game_events (game_id, calendar_type, event_id, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (game_id, calendar_type) DO UPDATE SET
			event_id = excluded.event_id,
			updated_at = excluded.updated_at`,
		gameID, string(typ), eventID, s.now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record event for game %d: %w", gameID, err)
	}
	return nil
}

// EventID returns the last recorded remote event id for a game on a calendar.
func (s *Store) EventID(ctx context.Context, gameID int64, typ calendars.Type) (string, bool, error) {
	var eventID string
	err := s.db.QueryRowContext(ctx,
		`SELECT event_id FROM game_events WHERE game_id = ? AND calendar_type = ?`,
		gameID, string(typ),
	).Scan(&eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load event for game %d: %w", gameID, err)
	}
	return eventID, true, nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]games.Game, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	var out []games.Game
	for rows.Next() {
		var (
			g                                 games.Game
			location                          string
			played, general, priority, season sql.NullInt64
		)
		if err := rows.Scan(&g.ID, &g.Key.Competition, &location, &g.Key.Opponents, &g.Key.Season,
			&played, &general, &priority, &season, &g.Result, &g.Attended); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		g.Key.Location = games.Location(location)
		g.DatePlayed = fromMillis(played)
		g.GeneralSaleDate = fromMillis(general)
		g.PrioritySaleDate = fromMillis(priority)
		g.SeasonTicketDate = fromMillis(season)
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return out, nil
}

// relevance returns the WHERE clause selecting games that belong on typ.
func relevance(typ calendars.Type) (string, []any, error) {
	switch typ {
	case calendars.Fixtures:
		return "date_played IS NOT NULL", nil, nil
	case calendars.GeneralSale:
		return "general_sale_date IS NOT NULL", nil, nil
	case calendars.PrioritySale:
		return "priority_sale_date IS NOT NULL", nil, nil
	case calendars.SeasonTicket:
		return "season_ticket_date IS NOT NULL", nil, nil
	case calendars.Attended:
		return "date_played IS NOT NULL AND attended = ?", []any{true}, nil
	case calendars.Unattended:
		return "date_played IS NOT NULL AND attended = ?", []any{false}, nil
	}
	return "", nil, fmt.Errorf("unknown calendar type %q", typ)
}

func toMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UTC().UnixMilli(), Valid: true}
}

func fromMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64).UTC()
	return &t
}
