package calendar

import (
	"errors"
	"fmt"
)

var (
	// ErrRemoteUnavailable marks transient transport or server failures; safe to retry.
	ErrRemoteUnavailable = errors.New("remote calendar unavailable")
	// ErrRemoteAuthExpired means the access token was rejected. Never retried.
	ErrRemoteAuthExpired = errors.New("remote calendar rejected access token")
	// ErrRemoteNotFound means the addressed event (or calendar) no longer exists.
	ErrRemoteNotFound = errors.New("remote calendar object not found")
)

// RemoteError carries details of a failed remote call and unwraps to one of the
// sentinel errors above (or nil for unclassified failures).
type RemoteError struct {
	Op         string
	CalendarID string
	EventID    string
	StatusCode int
	Kind       error
	Err        error
}

func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("calendar %s", e.Op)
	if e.CalendarID != "" {
		msg += " calendar=" + e.CalendarID
	}
	if e.EventID != "" {
		msg += " event=" + e.EventID
	}
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(" status=%d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	} else if e.Kind != nil {
		msg += ": " + e.Kind.Error()
	}
	return msg
}

// Unwrap exposes both the classification and the underlying cause.
func (e *RemoteError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// AsRemoteError attempts to unwrap an error into a RemoteError.
func AsRemoteError(err error) (*RemoteError, bool) {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr, true
	}
	return nil, false
}

// IsRetryable reports whether err is a transient failure worth retrying.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, ErrRemoteAuthExpired) || errors.Is(err, ErrRemoteNotFound) {
		return false
	}
	return errors.Is(err, ErrRemoteUnavailable)
}
