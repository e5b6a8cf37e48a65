package calendar

import (
	"context"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/preston-bernstein/fixture-calendar-service/internal/logging"
)

// rateLimitedGateway spaces out write calls to stay under the remote write quota.
type rateLimitedGateway struct {
	next     Gateway
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
	after    func(time.Duration) <-chan time.Time

	mu   sync.Mutex
	last time.Time
}

// NewRateLimitedGateway returns a Gateway that enforces a minimum interval between
// create/update/delete calls. Listing is not throttled. A non-positive interval
// disables throttling and returns next unchanged.
func NewRateLimitedGateway(next Gateway, interval time.Duration, logger *slog.Logger) Gateway {
	if interval <= 0 {
		return next
	}
	return &rateLimitedGateway{
		next:     next,
		interval: interval,
		logger:   logger,
		now:      time.Now,
		after:    time.After,
	}
}

func (g *rateLimitedGateway) ListEvents(ctx context.Context, calendarID string) iter.Seq2[Event, error] {
	return g.next.ListEvents(ctx, calendarID)
}

func (g *rateLimitedGateway) CreateEvent(ctx context.Context, calendarID string, payload Payload) (Event, error) {
	if err := g.wait(ctx, OpCreate); err != nil {
		return Event{}, err
	}
	return g.next.CreateEvent(ctx, calendarID, payload)
}

func (g *rateLimitedGateway) UpdateEvent(ctx context.Context, calendarID, eventID string, payload Payload) error {
	if err := g.wait(ctx, OpUpdate); err != nil {
		return err
	}
	return g.next.UpdateEvent(ctx, calendarID, eventID, payload)
}

func (g *rateLimitedGateway) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if err := g.wait(ctx, OpDelete); err != nil {
		return err
	}
	return g.next.DeleteEvent(ctx, calendarID, eventID)
}

func (g *rateLimitedGateway) wait(ctx context.Context, op string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.last.IsZero() {
		if delay := g.interval - g.now().Sub(g.last); delay > 0 {
			select {
			case <-ctx.Done():
				logging.Warn(logging.FromContext(ctx, g.logger), "rate-limited call canceled", logging.FieldOperation, op)
				return ctx.Err()
			case <-g.after(delay):
			}
		}
	}
	g.last = g.now()
	return nil
}
