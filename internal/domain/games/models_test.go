package games

import (
	"reflect"
	"testing"
)

func TestParseLocation(t *testing.T) {
	cases := []struct {
		raw  string
		want Location
		ok   bool
	}{
		{"home", LocationHome, true},
		{" H ", LocationHome, true},
		{"AWAY", LocationAway, true},
		{"a", LocationAway, true},
		{"neutral", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseLocation(tc.raw)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseLocation(%q) = %q,%v want %q,%v", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestLocationShort(t *testing.T) {
	if LocationHome.Short() != "H" || LocationAway.Short() != "A" {
		t.Fatalf("unexpected short forms %q %q", LocationHome.Short(), LocationAway.Short())
	}
}

func TestEventKeyRoundTrip(t *testing.T) {
	g := Game{ID: 42}
	if g.EventKey() != "42" {
		t.Fatalf("expected 42, got %s", g.EventKey())
	}
	id, ok := ParseEventKey(g.EventKey())
	if !ok || id != 42 {
		t.Fatalf("expected 42,true got %d,%v", id, ok)
	}
}

func TestParseEventKeyRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", " ", "abc", "0", "-3", "1.5", "12x"} {
		if _, ok := ParseEventKey(raw); ok {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}

func TestSeasonLabel(t *testing.T) {
	cases := map[int]string{
		2023: "2023/24",
		2008: "2008/09",
		1999: "1999/00",
		0:    "",
	}
	for season, want := range cases {
		if got := SeasonLabel(season); got != want {
			t.Fatalf("SeasonLabel(%d) = %q want %q", season, got, want)
		}
	}
}

func TestBusinessKeyString(t *testing.T) {
	k := BusinessKey{Competition: "Premier League", Location: LocationAway, Opponents: "Fulham", Season: 2023}
	if got := k.String(); got != "Premier League/AWAY/Fulham/2023" {
		t.Fatalf("unexpected key string %q", got)
	}
}

func TestGameJSONTags(t *testing.T) {
	expected := map[string]string{
		"ID":               "id",
		"Key":              "key",
		"DatePlayed":       "datePlayed,omitempty",
		"GeneralSaleDate":  "generalSaleDate,omitempty",
		"PrioritySaleDate": "prioritySaleDate,omitempty",
		"SeasonTicketDate": "seasonTicketDate,omitempty",
		"Result":           "result,omitempty",
		"Attended":         "attended",
	}
	typ := reflect.TypeOf(Game{})
	for name, tag := range expected {
		field, ok := typ.FieldByName(name)
		if !ok {
			t.Fatalf("missing field %s", name)
		}
		if got := field.Tag.Get("json"); got != tag {
			t.Fatalf("field %s json tag %q want %q", name, got, tag)
		}
	}
}
