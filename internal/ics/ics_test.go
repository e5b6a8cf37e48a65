package ics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preston-bernstein/fixture-calendar-service/internal/domain/calendars"
	"github.com/preston-bernstein/fixture-calendar-service/internal/domain/games"
	"github.com/preston-bernstein/fixture-calendar-service/internal/format"
	"github.com/preston-bernstein/fixture-calendar-service/internal/teststubs"
	"github.com/preston-bernstein/fixture-calendar-service/internal/testutil"
)

func parse(t *testing.T, raw string) *ical.Calendar {
	t.Helper()
	cal, err := ical.ParseCalendar(strings.NewReader(raw))
	require.NoError(t, err)
	return cal
}

func TestBuildRendersRelevantGames(t *testing.T) {
	f := format.New(time.UTC)
	stamp := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	gs := []games.Game{testutil.SampleGame(1, 9), {ID: 2}}

	cal := parse(t, Build(f, calendars.Fixtures, gs, stamp))
	events := cal.Events()
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "fixtures-1@fixture-calendar", ev.Id())
	want, _ := f.Format(calendars.Fixtures, gs[0])
	assert.Equal(t, want.Title, ev.GetProperty(ical.ComponentPropertySummary).Value)
	assert.Equal(t, "1", ev.GetProperty(ical.ComponentProperty(gameIDProp)).Value)

	start, err := ev.GetStartAt()
	require.NoError(t, err)
	assert.True(t, start.Equal(want.Start))
	end, err := ev.GetEndAt()
	require.NoError(t, err)
	assert.True(t, end.Equal(want.End))
	assert.Empty(t, ev.Alarms())
}

func TestBuildAddsAlarmForSales(t *testing.T) {
	g := testutil.SampleSaleGame(3, 9)
	cal := parse(t, Build(format.New(time.UTC), calendars.GeneralSale, []games.Game{g}, time.Now()))
	require.Len(t, cal.Events(), 1)
	ev := cal.Events()[0]
	assert.True(t, strings.HasPrefix(ev.GetProperty(ical.ComponentPropertySummary).Value, "General sale: "))
	assert.Len(t, ev.Alarms(), 1)
}

func TestExporterUsesRepository(t *testing.T) {
	repo := &teststubs.StubRepository{Games: []games.Game{testutil.SampleGame(1, 9), testutil.SampleGame(2, 16)}}
	e := NewExporter(repo, format.New(time.UTC))
	e.now = testutil.NowAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	out, err := e.Export(context.Background(), calendars.Fixtures)
	require.NoError(t, err)
	assert.Len(t, parse(t, out).Events(), 2)

	repo.Err = errors.New("db down")
	_, err = e.Export(context.Background(), calendars.Fixtures)
	assert.ErrorIs(t, err, repo.Err)
}
