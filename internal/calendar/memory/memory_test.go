package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/preston-bernstein/fixture-calendar-service/internal/calendar"
)

func collect(t *testing.T, g *Gateway, calendarID string) []calendar.Event {
	t.Helper()
	var out []calendar.Event
	for ev, err := range g.ListEvents(context.Background(), calendarID) {
		if err != nil {
			t.Fatalf("unexpected list error: %v", err)
		}
		out = append(out, ev)
	}
	return out
}

func TestListFollowsPages(t *testing.T) {
	g := New(2)
	for i := 0; i < 5; i++ {
		g.Seed("cal", calendar.Event{Title: "e"})
	}

	events := collect(t, g, "cal")
	if len(events) != 5 {
		t.Fatalf("expected 5 events, got %d", len(events))
	}
	if g.Pages() != 3 {
		t.Fatalf("expected 3 pages, got %d", g.Pages())
	}
	if events[0].ID != "ev-000001" || events[4].ID != "ev-000005" {
		t.Fatalf("expected insertion order, got %s..%s", events[0].ID, events[4].ID)
	}
}

func TestListStopsWhenConsumerBreaks(t *testing.T) {
	g := New(1)
	g.Seed("cal", calendar.Event{}, calendar.Event{}, calendar.Event{})

	for range g.ListEvents(context.Background(), "cal") {
		break
	}
	if g.Pages() != 1 {
		t.Fatalf("expected lazy paging to stop after first page, got %d pages", g.Pages())
	}
}

func TestListSurfacesInjectedFailure(t *testing.T) {
	g := New(1)
	g.Seed("cal", calendar.Event{}, calendar.Event{})
	g.FailNext(calendar.OpList, nil, calendar.ErrRemoteUnavailable)

	var seen int
	var gotErr error
	for _, err := range g.ListEvents(context.Background(), "cal") {
		if err != nil {
			gotErr = err
			break
		}
		seen++
	}
	if seen != 1 {
		t.Fatalf("expected one event before failure, got %d", seen)
	}
	if !errors.Is(gotErr, calendar.ErrRemoteUnavailable) {
		t.Fatalf("expected unavailable error, got %v", gotErr)
	}
}

func TestCreateUpdateDelete(t *testing.T) {
	g := New(0)
	ctx := context.Background()
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	ev, err := g.CreateEvent(ctx, "cal", calendar.Payload{Title: "t", Start: start, End: start.Add(time.Hour), GameID: "7"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if gameID, _ := ev.Property(calendar.GameIDProperty); gameID != "7" {
		t.Fatalf("expected gameId property, got %q", gameID)
	}

	if err := g.UpdateEvent(ctx, "cal", ev.ID, calendar.Payload{Title: "t2", Start: start, End: start.Add(time.Hour)}); err != nil {
		t.Fatalf("update: %v", err)
	}
	stored := g.Events("cal")
	if len(stored) != 1 || stored[0].Title != "t2" {
		t.Fatalf("expected updated title, got %+v", stored)
	}
	if gameID, _ := stored[0].Property(calendar.GameIDProperty); gameID != "7" {
		t.Fatal("expected update to keep extended properties")
	}

	if err := g.DeleteEvent(ctx, "cal", ev.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := g.DeleteEvent(ctx, "cal", ev.ID); err != nil {
		t.Fatalf("expected second delete to be idempotent, got %v", err)
	}
	if len(g.Events("cal")) != 0 {
		t.Fatal("expected calendar to be empty")
	}
	if g.Calls(calendar.OpDelete) != 2 {
		t.Fatalf("expected 2 delete calls, got %d", g.Calls(calendar.OpDelete))
	}
}

func TestUpdateUnknownEventIsNotFound(t *testing.T) {
	g := New(0)
	err := g.UpdateEvent(context.Background(), "cal", "missing", calendar.Payload{})
	if !errors.Is(err, calendar.ErrRemoteNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCanceledContext(t *testing.T) {
	g := New(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := g.CreateEvent(ctx, "cal", calendar.Payload{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	for _, err := range g.ListEvents(ctx, "cal") {
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected canceled list, got %v", err)
		}
	}
}
