package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"
)

const migrationTable = "schema_migrations"

// applyMigrations runs each embedded .sql file at most once, in name order.
func applyMigrations(ctx context.Context, db *sql.DB, migrationFS fs.FS) error {
	entries, err := fs.ReadDir(migrationFS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+migrationTable+` (
    name TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, file := range files {
		applied, err := isApplied(ctx, db, file)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", file, err)
		}
		if applied {
			continue
		}
		content, err := fs.ReadFile(migrationFS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		up := upSection(string(content))
		if strings.TrimSpace(up) == "" {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, up); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO `+migrationTable+` (name, applied_at) VALUES (?, ?)`,
			file, time.Now().UTC().UnixMilli(),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}
	return nil
}

// upSection returns the SQL between the Up and Down markers, or the whole file.
func upSection(content string) string {
	const upMarker, downMarker = "-- +migrate Up", "-- +migrate Down"
	start := strings.Index(content, upMarker)
	if start == -1 {
		return content
	}
	content = content[start+len(upMarker):]
	if end := strings.Index(content, downMarker); end != -1 {
		content = content[:end]
	}
	return content
}

func isApplied(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var found int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM `+migrationTable+` WHERE name = ?`, name).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
