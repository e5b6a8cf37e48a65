// Package memory is an in-process calendar backend used for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"iter"
	"maps"
	"sync"

	"github.com/preston-bernstein/fixture-calendar-service/internal/calendar"
)

const defaultPageSize = 100

// Gateway keeps events per calendar in insertion order and pages through them the
// way a remote API would. Failures can be injected per operation.
type Gateway struct {
	mu       sync.Mutex
	pageSize int
	nextID   int
	events   map[string][]calendar.Event
	failures map[string][]error
	calls    map[string]int
	pages    int
}

// New creates an empty gateway. pageSize <= 0 uses a default of 100.
func New(pageSize int) *Gateway {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Gateway{
		pageSize: pageSize,
		events:   make(map[string][]calendar.Event),
		failures: make(map[string][]error),
		calls:    make(map[string]int),
	}
}

// Seed appends events as-is (ids included) to a calendar. Events without an id
// get a generated one.
func (g *Gateway) Seed(calendarID string, events ...calendar.Event) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, ev := range events {
		if ev.ID == "" {
			ev.ID = g.newID()
		}
		ev.ExtendedProperties = maps.Clone(ev.ExtendedProperties)
		g.events[calendarID] = append(g.events[calendarID], ev)
	}
}

// Events returns a copy of the events currently stored for a calendar.
func (g *Gateway) Events(calendarID string) []calendar.Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]calendar.Event, len(g.events[calendarID]))
	copy(out, g.events[calendarID])
	return out
}

// FailNext queues errors returned by the next calls of op, one per call.
func (g *Gateway) FailNext(op string, errs ...error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[op] = append(g.failures[op], errs...)
}

// Calls returns how many times op was invoked (including injected failures).
func (g *Gateway) Calls(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[op]
}

// Pages returns how many list pages have been served.
func (g *Gateway) Pages() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pages
}

// ListEvents pages through the calendar. Each page is read at fetch time, so
// writes made between pages are visible, like an eventually consistent remote.
func (g *Gateway) ListEvents(ctx context.Context, calendarID string) iter.Seq2[calendar.Event, error] {
	return func(yield func(calendar.Event, error) bool) {
		offset := 0
		for {
			if err := ctx.Err(); err != nil {
				yield(calendar.Event{}, err)
				return
			}
			page, next, err := g.page(calendarID, offset)
			if err != nil {
				yield(calendar.Event{}, err)
				return
			}
			for _, ev := range page {
				if !yield(ev, nil) {
					return
				}
			}
			if next < 0 {
				return
			}
			offset = next
		}
	}
}

func (g *Gateway) page(calendarID string, offset int) ([]calendar.Event, int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.takeFailure(calendar.OpList); err != nil {
		return nil, -1, err
	}
	g.pages++
	all := g.events[calendarID]
	if offset >= len(all) {
		return nil, -1, nil
	}
	end := min(offset+g.pageSize, len(all))
	page := make([]calendar.Event, end-offset)
	copy(page, all[offset:end])
	if end >= len(all) {
		return page, -1, nil
	}
	return page, end, nil
}

// CreateEvent stores a new event and returns it with its assigned id.
func (g *Gateway) CreateEvent(ctx context.Context, calendarID string, payload calendar.Payload) (calendar.Event, error) {
	if err := ctx.Err(); err != nil {
		return calendar.Event{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.takeFailure(calendar.OpCreate); err != nil {
		return calendar.Event{}, err
	}
	ev := calendar.Event{
		ID:                 g.newID(),
		Title:              payload.Title,
		Description:        payload.Description,
		Start:              payload.Start,
		End:                payload.End,
		ExtendedProperties: map[string]string{calendar.GameIDProperty: payload.GameID},
	}
	g.events[calendarID] = append(g.events[calendarID], ev)
	return ev, nil
}

// UpdateEvent rewrites an event's content, keeping its extended properties.
func (g *Gateway) UpdateEvent(ctx context.Context, calendarID, eventID string, payload calendar.Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.takeFailure(calendar.OpUpdate); err != nil {
		return err
	}
	events := g.events[calendarID]
	for i := range events {
		if events[i].ID != eventID {
			continue
		}
		events[i].Title = payload.Title
		events[i].Description = payload.Description
		events[i].Start = payload.Start
		events[i].End = payload.End
		return nil
	}
	return &calendar.RemoteError{Op: calendar.OpUpdate, CalendarID: calendarID, EventID: eventID, StatusCode: 404, Kind: calendar.ErrRemoteNotFound}
}

// DeleteEvent removes an event. Unknown ids are not an error.
func (g *Gateway) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.takeFailure(calendar.OpDelete); err != nil {
		return err
	}
	events := g.events[calendarID]
	for i := range events {
		if events[i].ID == eventID {
			g.events[calendarID] = append(events[:i:i], events[i+1:]...)
			return nil
		}
	}
	return nil
}

func (g *Gateway) takeFailure(op string) error {
	g.calls[op]++
	queue := g.failures[op]
	if len(queue) == 0 {
		return nil
	}
	err := queue[0]
	g.failures[op] = queue[1:]
	return err
}

func (g *Gateway) newID() string {
	g.nextID++
	return fmt.Sprintf("ev-%06d", g.nextID)
}

var _ calendar.Gateway = (*Gateway)(nil)
