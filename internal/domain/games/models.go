package games

import (
	"strconv"
	"strings"
	"time"
)

// Location says whether a game is played at home or away.
type Location string

const (
	LocationHome Location = "HOME"
	LocationAway Location = "AWAY"
)

// ParseLocation accepts HOME/AWAY in any case plus the H/A shorthand.
func ParseLocation(raw string) (Location, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "HOME", "H":
		return LocationHome, true
	case "AWAY", "A":
		return LocationAway, true
	default:
		return "", false
	}
}

// Short returns the single-letter form used in event titles.
func (l Location) Short() string {
	if l == LocationAway {
		return "A"
	}
	return "H"
}

// BusinessKey is the natural identity of a game before a database id exists.
type BusinessKey struct {
	Competition string   `json:"competition" yaml:"competition"`
	Location    Location `json:"location" yaml:"location"`
	Opponents   string   `json:"opponents" yaml:"opponents"`
	Season      int      `json:"season" yaml:"season"`
}

// String renders the key in a stable, log-friendly form.
func (k BusinessKey) String() string {
	return strings.Join([]string{
		k.Competition,
		string(k.Location),
		k.Opponents,
		strconv.Itoa(k.Season),
	}, "/")
}

// Game is a locally maintained fixture. Date fields are nil until known.
type Game struct {
	ID               int64       `json:"id"`
	Key              BusinessKey `json:"key"`
	DatePlayed       *time.Time  `json:"datePlayed,omitempty"`
	GeneralSaleDate  *time.Time  `json:"generalSaleDate,omitempty"`
	PrioritySaleDate *time.Time  `json:"prioritySaleDate,omitempty"`
	SeasonTicketDate *time.Time  `json:"seasonTicketDate,omitempty"`
	Result           string      `json:"result,omitempty"`
	Attended         bool        `json:"attended"`
}

// EventKey is the identifier stored on remote events to point back at this game.
func (g Game) EventKey() string {
	return strconv.FormatInt(g.ID, 10)
}

// ParseEventKey is the inverse of EventKey. Only positive ids are valid.
func ParseEventKey(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// SeasonLabel formats a season start year as "2023/24".
func SeasonLabel(season int) string {
	if season <= 0 {
		return ""
	}
	next := (season + 1) % 100
	return strconv.Itoa(season) + "/" + twoDigits(next)
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
