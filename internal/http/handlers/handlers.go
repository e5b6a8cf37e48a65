package handlers

import (
	"context"
	"log/slog"
	nethttp "net/http"
	"strings"
	"time"

	"github.com/preston-bernstein/fixture-calendar-service/internal/domain/calendars"
	"github.com/preston-bernstein/fixture-calendar-service/internal/logging"
	"github.com/preston-bernstein/fixture-calendar-service/internal/reconcile"
	"github.com/preston-bernstein/fixture-calendar-service/internal/scheduler"
)

const icsSuffix = ".ics"

// StatusSource reports scheduler health and the last report per calendar type.
type StatusSource interface {
	Status() scheduler.Status
	Reports() map[calendars.Type]reconcile.Report
	Types() []calendars.Type
}

// FeedExporter renders a calendar type as an iCalendar document.
type FeedExporter interface {
	Export(ctx context.Context, typ calendars.Type) (string, error)
}

type nowFunc func() time.Time

// Handler serves the read-only endpoints.
type Handler struct {
	status StatusSource
	feeds  FeedExporter
	logger *slog.Logger
	now    nowFunc
}

// NewHandler constructs a Handler. status and feeds may be nil.
func NewHandler(status StatusSource, feeds FeedExporter, logger *slog.Logger) *Handler {
	return &Handler{
		status: status,
		feeds:  feeds,
		logger: logger,
		now:    time.Now,
	}
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Ready     bool                                `json:"ready"`
	Now       time.Time                           `json:"now"`
	Scheduler scheduler.Status                    `json:"scheduler"`
	Types     []calendars.Type                    `json:"types"`
	Reports   map[calendars.Type]reconcile.Report `json:"reports"`
}

// Health reports process liveness.
func (h *Handler) Health(w nethttp.ResponseWriter, r *nethttp.Request) {
	if !requireMethod(w, r, nethttp.MethodGet, h.logger) {
		return
	}
	if err := r.Context().Err(); err != nil {
		writeError(w, r, nethttp.StatusServiceUnavailable, "shutting down", h.logger)
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

// Ready turns unready after repeated failed sync runs.
func (h *Handler) Ready(w nethttp.ResponseWriter, r *nethttp.Request) {
	if !requireMethod(w, r, nethttp.MethodGet, h.logger) {
		return
	}
	if h.status == nil {
		writeJSON(w, nethttp.StatusOK, map[string]string{"status": "ready"}, h.logger)
		return
	}
	st := h.status.Status()
	if st.IsReady() {
		writeJSON(w, nethttp.StatusOK, map[string]string{"status": "ready"}, h.logger)
		return
	}
	msg := st.LastError
	if msg == "" {
		msg = "not ready"
	}
	writeError(w, r, nethttp.StatusServiceUnavailable, msg, h.logger)
}

// Status returns scheduler health and the most recent report per calendar type.
func (h *Handler) Status(w nethttp.ResponseWriter, r *nethttp.Request) {
	if !requireMethod(w, r, nethttp.MethodGet, h.logger) {
		return
	}
	resp := StatusResponse{
		Ready:   true,
		Now:     h.now().UTC(),
		Types:   []calendars.Type{},
		Reports: map[calendars.Type]reconcile.Report{},
	}
	if h.status != nil {
		resp.Scheduler = h.status.Status()
		resp.Ready = resp.Scheduler.IsReady()
		resp.Types = h.status.Types()
		resp.Reports = h.status.Reports()
	}
	writeJSON(w, nethttp.StatusOK, resp, h.logger)
}

// CalendarFeed serves GET /calendars/{file} where file is "<type>.ics".
func (h *Handler) CalendarFeed(w nethttp.ResponseWriter, r *nethttp.Request) {
	if !requireMethod(w, r, nethttp.MethodGet, h.logger) {
		return
	}
	logger := loggerFromContext(r, h.logger)
	file := r.PathValue("file")
	if file == "" {
		file = strings.TrimPrefix(r.URL.Path, "/calendars/")
	}
	name, ok := strings.CutSuffix(file, icsSuffix)
	if !ok {
		writeError(w, r, nethttp.StatusNotFound, "not found", logger)
		return
	}
	typ, err := calendars.Parse(name)
	if err != nil {
		writeError(w, r, nethttp.StatusNotFound, "unknown calendar type", logger)
		return
	}
	if h.feeds == nil {
		writeError(w, r, nethttp.StatusServiceUnavailable, "calendar feeds not configured", logger)
		return
	}

	body, err := h.feeds.Export(r.Context(), typ)
	if err != nil {
		logging.Error(logger, "calendar feed export failed", err,
			slog.String(logging.FieldCalendarType, typ.String()),
		)
		writeError(w, r, nethttp.StatusInternalServerError, "failed to build calendar", logger)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="`+typ.String()+icsSuffix+`"`)
	w.WriteHeader(nethttp.StatusOK)
	if r.Method == nethttp.MethodHead {
		return
	}
	if _, err := w.Write([]byte(body)); err != nil {
		logging.Warn(logger, "calendar feed write failed", slog.Any("err", err))
	}
}
