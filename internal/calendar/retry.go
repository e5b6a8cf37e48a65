package calendar

import (
	"context"
	"iter"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/preston-bernstein/fixture-calendar-service/internal/logging"
)

const (
	defaultRetryAttempts = 3
	defaultBackoff       = 200 * time.Millisecond
	maxBackoff           = 10 * time.Second
)

// retryingGateway retries transient write failures with exponential backoff.
type retryingGateway struct {
	inner       Gateway
	logger      *slog.Logger
	maxAttempts int
	newBackOff  func() backoff.BackOff
}

// NewRetryingGateway wraps the given gateway with retries for create/update/delete.
// If maxAttempts/initial are <= 0, defaults are used. Listing is passed through: a
// paginated stream cannot be resumed halfway, so a failed listing fails the run.
func NewRetryingGateway(inner Gateway, logger *slog.Logger, maxAttempts int, initial time.Duration) Gateway {
	if maxAttempts <= 0 {
		maxAttempts = defaultRetryAttempts
	}
	if initial <= 0 {
		initial = defaultBackoff
	}
	return &retryingGateway{
		inner:       inner,
		logger:      logger,
		maxAttempts: maxAttempts,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = initial
			b.MaxInterval = maxBackoff
			b.MaxElapsedTime = 0
			return b
		},
	}
}

func (r *retryingGateway) ListEvents(ctx context.Context, calendarID string) iter.Seq2[Event, error] {
	return r.inner.ListEvents(ctx, calendarID)
}

func (r *retryingGateway) CreateEvent(ctx context.Context, calendarID string, payload Payload) (Event, error) {
	var created Event
	err := r.retry(ctx, OpCreate, calendarID, func() error {
		ev, err := r.inner.CreateEvent(ctx, calendarID, payload)
		if err != nil {
			return err
		}
		created = ev
		return nil
	})
	return created, err
}

func (r *retryingGateway) UpdateEvent(ctx context.Context, calendarID, eventID string, payload Payload) error {
	return r.retry(ctx, OpUpdate, calendarID, func() error {
		return r.inner.UpdateEvent(ctx, calendarID, eventID, payload)
	})
}

func (r *retryingGateway) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	return r.retry(ctx, OpDelete, calendarID, func() error {
		return r.inner.DeleteEvent(ctx, calendarID, eventID)
	})
}

func (r *retryingGateway) retry(ctx context.Context, op, calendarID string, fn func() error) error {
	attempt := 0
	policy := backoff.WithContext(
		backoff.WithMaxRetries(r.newBackOff(), uint64(r.maxAttempts-1)),
		ctx,
	)
	operation := func() error {
		attempt++
		err := fn()
		if err != nil && !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, delay time.Duration) {
		logging.Warn(logging.FromContext(ctx, r.logger), "calendar call retry",
			logging.FieldOperation, op,
			logging.FieldCalendarID, calendarID,
			logging.FieldAttempt, attempt,
			"max_attempts", r.maxAttempts,
			"delay_ms", delay.Milliseconds(),
			"error", err,
		)
	}
	return backoff.RetryNotify(operation, policy, notify)
}
