// Package google implements the calendar gateway on the Google Calendar v3 API.
package google

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/preston-bernstein/fixture-calendar-service/internal/auth"
	"github.com/preston-bernstein/fixture-calendar-service/internal/calendar"
	"github.com/preston-bernstein/fixture-calendar-service/internal/logging"
)

const (
	pageSize            = 250
	defaultReadRetries  = 3
	defaultReadWaitMin  = 500 * time.Millisecond
	defaultReadWaitMax  = 10 * time.Second
	defaultRequestLimit = 30 * time.Second
)

// Config configures the Google gateway.
type Config struct {
	Tokens auth.TokenProvider
	// TimeZone is an IANA zone name sent with event times; optional.
	TimeZone string
	// Endpoint overrides the API base URL (tests).
	Endpoint string
	// HTTPClient is the base client; its transport is wrapped with auth.
	HTTPClient    *http.Client
	ReadRetries   int
	ReadRetryWait time.Duration
	Logger        *slog.Logger
}

// Gateway talks to Google Calendar. Reads go through a retrying HTTP client so a
// flaky page does not lose a whole listing; writes use a plain client and are
// retried one level up.
type Gateway struct {
	read     *gcal.Service
	write    *gcal.Service
	timeZone string
}

// New builds a gateway. ctx scopes token lookups made by the HTTP transport.
func New(ctx context.Context, cfg Config) (*Gateway, error) {
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("google gateway: %w", auth.ErrNoValidToken)
	}
	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: defaultRequestLimit}
	}
	authed := &http.Client{
		Timeout: base.Timeout,
		Transport: &oauth2.Transport{
			Source: auth.TokenSource(ctx, cfg.Tokens),
			Base:   base.Transport,
		},
	}

	write, err := newService(ctx, authed, cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	read, err := newService(ctx, readClient(authed, cfg), cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	return &Gateway{read: read, write: write, timeZone: cfg.TimeZone}, nil
}

func newService(ctx context.Context, client *http.Client, endpoint string) (*gcal.Service, error) {
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return svc, nil
}

func readClient(authed *http.Client, cfg Config) *http.Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = authed
	rc.RetryMax = cfg.ReadRetries
	if rc.RetryMax <= 0 {
		rc.RetryMax = defaultReadRetries
	}
	rc.RetryWaitMin = defaultReadWaitMin
	rc.RetryWaitMax = defaultReadWaitMax
	if cfg.ReadRetryWait > 0 {
		rc.RetryWaitMin = cfg.ReadRetryWait
		rc.RetryWaitMax = cfg.ReadRetryWait
	}
	rc.Logger = nil
	if cfg.Logger != nil {
		rc.Logger = cfg.Logger
	}
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if errors.Is(err, auth.ErrNoValidToken) {
			return false, nil
		}
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	// Hand the last response back so status classification still applies.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return rc.StandardClient()
}

// ListEvents implements calendar.Gateway, following nextPageToken lazily.
func (g *Gateway) ListEvents(ctx context.Context, calendarID string) iter.Seq2[calendar.Event, error] {
	return func(yield func(calendar.Event, error) bool) {
		logger := logging.FromContext(ctx, nil)
		pageToken := ""
		for page := 1; ; page++ {
			call := g.read.Events.List(calendarID).
				Context(ctx).
				MaxResults(pageSize).
				ShowDeleted(false)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			resp, err := call.Do()
			if err != nil {
				yield(calendar.Event{}, classify(calendar.OpList, calendarID, "", err))
				return
			}
			logging.Debug(logger, "fetched event page", "page", page, logging.FieldCount, len(resp.Items))
			for _, item := range resp.Items {
				if item == nil {
					continue
				}
				if !yield(fromAPI(item), nil) {
					return
				}
			}
			if resp.NextPageToken == "" {
				return
			}
			pageToken = resp.NextPageToken
		}
	}
}

// CreateEvent implements calendar.Gateway.
func (g *Gateway) CreateEvent(ctx context.Context, calendarID string, payload calendar.Payload) (calendar.Event, error) {
	created, err := g.write.Events.Insert(calendarID, g.toAPI(payload)).Context(ctx).Do()
	if err != nil {
		return calendar.Event{}, classify(calendar.OpCreate, calendarID, "", err)
	}
	return fromAPI(created), nil
}

// UpdateEvent implements calendar.Gateway. It patches content and keeps any fields
// the service does not own.
func (g *Gateway) UpdateEvent(ctx context.Context, calendarID, eventID string, payload calendar.Payload) error {
	_, err := g.write.Events.Patch(calendarID, eventID, g.toAPI(payload)).Context(ctx).Do()
	if err != nil {
		return classify(calendar.OpUpdate, calendarID, eventID, err)
	}
	return nil
}

// DeleteEvent implements calendar.Gateway. Events that are already gone count as deleted.
func (g *Gateway) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	err := g.write.Events.Delete(calendarID, eventID).Context(ctx).Do()
	if err == nil {
		return nil
	}
	classified := classify(calendar.OpDelete, calendarID, eventID, err)
	if errors.Is(classified, calendar.ErrRemoteNotFound) {
		return nil
	}
	return classified
}

func (g *Gateway) toAPI(p calendar.Payload) *gcal.Event {
	return &gcal.Event{
		Summary:     p.Title,
		Description: p.Description,
		Start:       &gcal.EventDateTime{DateTime: p.Start.Format(time.RFC3339), TimeZone: g.timeZone},
		End:         &gcal.EventDateTime{DateTime: p.End.Format(time.RFC3339), TimeZone: g.timeZone},
		ExtendedProperties: &gcal.EventExtendedProperties{
			Private: map[string]string{calendar.GameIDProperty: p.GameID},
		},
	}
}

func fromAPI(item *gcal.Event) calendar.Event {
	ev := calendar.Event{
		ID:          item.Id,
		Title:       item.Summary,
		Description: item.Description,
		Start:       parseTime(item.Start),
		End:         parseTime(item.End),
	}
	if item.ExtendedProperties != nil && len(item.ExtendedProperties.Private) > 0 {
		ev.ExtendedProperties = make(map[string]string, len(item.ExtendedProperties.Private))
		for k, v := range item.ExtendedProperties.Private {
			ev.ExtendedProperties[k] = v
		}
	}
	return ev
}

// parseTime reads either a timed or an all-day boundary. Missing or unreadable
// boundaries come back as the zero time, which makes a managed event look stale.
func parseTime(dt *gcal.EventDateTime) time.Time {
	if dt == nil {
		return time.Time{}
	}
	if dt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, dt.DateTime); err == nil {
			return t
		}
		return time.Time{}
	}
	if dt.Date != "" {
		if t, err := time.Parse(time.DateOnly, dt.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}
