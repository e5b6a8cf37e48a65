package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/preston-bernstein/fixture-calendar-service/internal/http/requestutil"
	"github.com/preston-bernstein/fixture-calendar-service/internal/logging"
	"github.com/preston-bernstein/fixture-calendar-service/internal/metrics"
)

// LoggingMiddleware wraps the handler with request logging, request ID support, and metrics.
func LoggingMiddleware(baseLogger *slog.Logger, recorder *metrics.Recorder, next http.Handler) http.Handler {
	if baseLogger == nil {
		baseLogger = slog.Default()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := requestutil.SanitizeRequestID(r.Header.Get("X-Request-ID"))
		w.Header().Set("X-Request-ID", reqID)

		logger := baseLogger.With(
			slog.String(logging.FieldRequestID, reqID),
			slog.String(logging.FieldMethod, r.Method),
			slog.String(logging.FieldPath, r.URL.Path),
			slog.String("query", r.URL.RawQuery),
			slog.String("client_ip", requestutil.ClientIP(r)),
		)

		ctx := logging.WithLogger(r.Context(), logger)
		ctx = withRequestID(ctx, reqID)
		r = r.WithContext(ctx)
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		recorder.RecordHTTPRequest(r.Method, normalizePath(r.URL.Path), ww.status, duration)

		logger.Info("request complete",
			slog.Int(logging.FieldStatusCode, ww.status),
			slog.Int64(logging.FieldDurationMS, duration.Milliseconds()),
		)
	})
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

// RequestIDFromContext extracts the request ID stored by the logging middleware.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if val, ok := ctx.Value(requestIDKey{}).(string); ok {
		return val
	}
	return ""
}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

type requestIDKey struct{}

// normalizePath keeps metric label cardinality bounded.
func normalizePath(path string) string {
	if path == "" {
		return ""
	}
	path, _, _ = strings.Cut(path, "?")
	switch {
	case path == "/health", path == "/ready", path == "/status", path == "/admin/sync":
		return path
	case strings.HasPrefix(path, "/admin/sync/"):
		return "/admin/sync/:type"
	case strings.HasPrefix(path, "/calendars/"):
		return "/calendars/:type"
	default:
		return "other"
	}
}
