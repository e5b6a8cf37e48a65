package calsync

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/preston-bernstein/fixture-calendar-service/internal/config"
)

const fixtures = `games:
  - competition: League
    location: home
    opponents: Rovers
    season: 2023
    played: 2024-03-02T15:00:00Z
  - competition: Cup
    location: away
    opponents: United
    season: 2023
    played: 2024-03-09T15:00:00Z
    attended: true
`

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("calsync", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func writeFixtures(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	if err := os.WriteFile(path, []byte(fixtures), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.Metrics.Enabled = false
	cfg.Gateway.WriteInterval = 0
	cfg.EventTimezone = "UTC"
	return cfg
}

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions(newFlagSet(), []string{"-import", " games.yaml ", "-once"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Import != "games.yaml" || !opts.Once {
		t.Fatalf("unexpected options %+v", opts)
	}
}

func TestParseOptionsRejectsInvalidCombinations(t *testing.T) {
	tests := map[string][]string{
		"nothing":       {},
		"once and type": {"-once", "-type", "fixtures"},
		"unknown type":  {"-type", "brunch"},
		"dry run alone": {"-dry-run", "-once"},
		"bad flag":      {"-bogus"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseOptions(newFlagSet(), args); err == nil {
				t.Fatalf("expected error for %v", args)
			}
		})
	}
	if _, err := ParseOptions(newFlagSet(), nil); !errors.Is(err, ErrNothingToDo) {
		t.Fatalf("expected ErrNothingToDo, got %v", err)
	}
}

func TestRunDryRunValidatesOnly(t *testing.T) {
	var out bytes.Buffer
	path := writeFixtures(t)
	dbPath := filepath.Join(t.TempDir(), "games.db")

	err := Run(context.Background(), Options{Import: path, DryRun: true, DBPath: dbPath}, testConfig(), nil, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "2 games valid") {
		t.Fatalf("unexpected output %q", out.String())
	}
	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatalf("expected dry run not to create the database, stat err %v", err)
	}
}

func TestRunImportAndOnceWithSQLite(t *testing.T) {
	var out bytes.Buffer
	opts := Options{
		Import: writeFixtures(t),
		Once:   true,
		DBPath: filepath.Join(t.TempDir(), "games.db"),
	}

	if err := Run(context.Background(), opts, testConfig(), nil, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "imported 2 games") {
		t.Fatalf("expected import summary, got %q", got)
	}
	if !strings.Contains(got, "fixtures: created=2") {
		t.Fatalf("expected fixtures report, got %q", got)
	}
	if !strings.Contains(got, "attended: created=1") {
		t.Fatalf("expected attended report, got %q", got)
	}

	// Re-importing the same file keeps one row per game.
	out.Reset()
	opts.Once = false
	if err := Run(context.Background(), opts, testConfig(), nil, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "imported 2 games") {
		t.Fatalf("expected idempotent import, got %q", out.String())
	}
}

func TestRunSingleType(t *testing.T) {
	var out bytes.Buffer
	cfg := testConfig()
	cfg.FixturesFile = writeFixtures(t)

	if err := Run(context.Background(), Options{Type: "unattended"}, cfg, nil, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out.String(), "unattended: created=1") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRunMissingImportFile(t *testing.T) {
	err := Run(context.Background(), Options{Import: filepath.Join(t.TempDir(), "nope.yaml")}, testConfig(), nil, nil)
	if err == nil {
		t.Fatalf("expected error for missing import file")
	}
}
