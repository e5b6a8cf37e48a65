package google

import (
	"context"
	"errors"
	"net"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/preston-bernstein/fixture-calendar-service/internal/auth"
	"github.com/preston-bernstein/fixture-calendar-service/internal/calendar"
)

// classify maps an API or transport error onto the gateway error taxonomy.
func classify(op, calendarID, eventID string, err error) error {
	remote := &calendar.RemoteError{Op: op, CalendarID: calendarID, EventID: eventID, Err: err}

	var apiErr *googleapi.Error
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Left unclassified; the caller's context decides what happens next.
	case errors.Is(err, auth.ErrNoValidToken):
		remote.Kind = calendar.ErrRemoteAuthExpired
	case errors.As(err, &apiErr):
		remote.StatusCode = apiErr.Code
		remote.Kind = kindForStatus(apiErr)
	default:
		var netErr net.Error
		if errors.As(err, &netErr) {
			remote.Kind = calendar.ErrRemoteUnavailable
		}
	}
	return remote
}

func kindForStatus(apiErr *googleapi.Error) error {
	switch code := apiErr.Code; {
	case code == http.StatusUnauthorized:
		return calendar.ErrRemoteAuthExpired
	case code == http.StatusNotFound, code == http.StatusGone:
		return calendar.ErrRemoteNotFound
	case code == http.StatusTooManyRequests, code >= http.StatusInternalServerError:
		return calendar.ErrRemoteUnavailable
	case code == http.StatusForbidden && rateLimited(apiErr):
		return calendar.ErrRemoteUnavailable
	}
	return nil
}

// rateLimited spots quota errors Google reports as 403.
func rateLimited(apiErr *googleapi.Error) bool {
	for _, item := range apiErr.Errors {
		switch item.Reason {
		case "rateLimitExceeded", "userRateLimitExceeded":
			return true
		}
	}
	return false
}
