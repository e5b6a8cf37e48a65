package calendar

import (
	"context"
	"iter"
	"time"

	"github.com/preston-bernstein/fixture-calendar-service/internal/metrics"
)

// instrumentedGateway records latency and error counts for every remote call.
type instrumentedGateway struct {
	next     Gateway
	recorder *metrics.Recorder
}

// NewInstrumentedGateway wraps next with metrics. A nil recorder returns next unchanged.
func NewInstrumentedGateway(next Gateway, recorder *metrics.Recorder) Gateway {
	if recorder == nil {
		return next
	}
	return &instrumentedGateway{next: next, recorder: recorder}
}

func (g *instrumentedGateway) ListEvents(ctx context.Context, calendarID string) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		start := time.Now()
		var listErr error
		defer func() {
			g.recorder.RecordGatewayCall(OpList, time.Since(start), listErr)
		}()
		for ev, err := range g.next.ListEvents(ctx, calendarID) {
			if err != nil {
				listErr = err
			}
			if !yield(ev, err) {
				return
			}
		}
	}
}

func (g *instrumentedGateway) CreateEvent(ctx context.Context, calendarID string, payload Payload) (Event, error) {
	start := time.Now()
	ev, err := g.next.CreateEvent(ctx, calendarID, payload)
	g.recorder.RecordGatewayCall(OpCreate, time.Since(start), err)
	return ev, err
}

func (g *instrumentedGateway) UpdateEvent(ctx context.Context, calendarID, eventID string, payload Payload) error {
	start := time.Now()
	err := g.next.UpdateEvent(ctx, calendarID, eventID, payload)
	g.recorder.RecordGatewayCall(OpUpdate, time.Since(start), err)
	return err
}

func (g *instrumentedGateway) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	start := time.Now()
	err := g.next.DeleteEvent(ctx, calendarID, eventID)
	g.recorder.RecordGatewayCall(OpDelete, time.Since(start), err)
	return err
}
