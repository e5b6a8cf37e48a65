package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/preston-bernstein/fixture-calendar-service/internal/domain/games"
)

// ErrInvalidFixture marks a fixture record that cannot become a game.
var ErrInvalidFixture = errors.New("invalid fixture")

// FixtureFile is the YAML document accepted by the importer.
type FixtureFile struct {
	Games []FixtureRecord `yaml:"games"`
}

// FixtureRecord is one game as written by hand in a fixture file.
type FixtureRecord struct {
	ID           int64      `yaml:"id,omitempty"`
	Competition  string     `yaml:"competition"`
	Location     string     `yaml:"location"`
	Opponents    string     `yaml:"opponents"`
	Season       int        `yaml:"season"`
	Played       *time.Time `yaml:"played,omitempty"`
	GeneralSale  *time.Time `yaml:"generalSale,omitempty"`
	PrioritySale *time.Time `yaml:"prioritySale,omitempty"`
	SeasonTicket *time.Time `yaml:"seasonTicket,omitempty"`
	Result       string     `yaml:"result,omitempty"`
	Attended     bool       `yaml:"attended,omitempty"`
}

// LoadFixtureFile reads and validates a fixture file from disk.
func LoadFixtureFile(path string) ([]games.Game, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixtures: %w", err)
	}
	defer f.Close()
	return ParseFixtures(f)
}

// ParseFixtures decodes a fixture document. Every record must be valid.
func ParseFixtures(r io.Reader) ([]games.Game, error) {
	var doc FixtureFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	out := make([]games.Game, 0, len(doc.Games))
	for i, rec := range doc.Games {
		g, err := rec.Game()
		if err != nil {
			return nil, fmt.Errorf("fixture %d: %w", i+1, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// Game validates the record and converts it.
func (r FixtureRecord) Game() (games.Game, error) {
	loc, ok := games.ParseLocation(r.Location)
	if !ok {
		return games.Game{}, fmt.Errorf("%w: location %q", ErrInvalidFixture, r.Location)
	}
	key := games.BusinessKey{
		Competition: strings.TrimSpace(r.Competition),
		Location:    loc,
		Opponents:   strings.TrimSpace(r.Opponents),
		Season:      r.Season,
	}
	switch {
	case key.Competition == "":
		return games.Game{}, fmt.Errorf("%w: competition is required", ErrInvalidFixture)
	case key.Opponents == "":
		return games.Game{}, fmt.Errorf("%w: opponents is required", ErrInvalidFixture)
	case key.Season <= 0:
		return games.Game{}, fmt.Errorf("%w: season is required", ErrInvalidFixture)
	case r.ID < 0:
		return games.Game{}, fmt.Errorf("%w: negative id", ErrInvalidFixture)
	}
	return games.Game{
		ID:               r.ID,
		Key:              key,
		DatePlayed:       utc(r.Played),
		GeneralSaleDate:  utc(r.GeneralSale),
		PrioritySaleDate: utc(r.PrioritySale),
		SeasonTicketDate: utc(r.SeasonTicket),
		Result:           strings.TrimSpace(r.Result),
		Attended:         r.Attended,
	}, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
