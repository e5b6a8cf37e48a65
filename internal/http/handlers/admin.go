package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/preston-bernstein/fixture-calendar-service/internal/domain/calendars"
	"github.com/preston-bernstein/fixture-calendar-service/internal/http/requestutil"
	"github.com/preston-bernstein/fixture-calendar-service/internal/logging"
	"github.com/preston-bernstein/fixture-calendar-service/internal/reconcile"
	"github.com/preston-bernstein/fixture-calendar-service/internal/scheduler"
)

const defaultSyncTimeout = 10 * time.Minute

// Syncer triggers reconciliation outside the cron schedule.
type Syncer interface {
	RunAll(ctx context.Context) scheduler.Cycle
	RunType(ctx context.Context, typ calendars.Type) (reconcile.Report, error)
}

// AdminHandler exposes admin-only endpoints guarded by ADMIN_TOKEN.
type AdminHandler struct {
	syncer  Syncer
	token   string
	logger  *slog.Logger
	timeout time.Duration
}

// NewAdminHandler constructs an AdminHandler. An empty token disables every admin route.
func NewAdminHandler(syncer Syncer, token string, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		syncer:  syncer,
		token:   token,
		logger:  logger,
		timeout: defaultSyncTimeout,
	}
}

// SyncResponse is the body returned by POST /admin/sync/{type}.
type SyncResponse struct {
	Report reconcile.Report `json:"report"`
	Error  string           `json:"error,omitempty"`
}

// SyncAll runs every configured calendar type and returns the cycle.
func (h *AdminHandler) SyncAll(w http.ResponseWriter, r *http.Request) {
	if !h.admit(w, r) {
		return
	}
	logger := loggerFromContext(r, h.logger)
	ctx, cancel := h.syncContext(r)
	defer cancel()

	cycle := h.syncer.RunAll(ctx)
	status := http.StatusOK
	switch {
	case cycle.Skipped:
		status = http.StatusServiceUnavailable
	case cycle.Err() != nil:
		status = http.StatusBadGateway
	}
	logging.Info(logger, "admin sync complete",
		slog.Int(logging.FieldCount, len(cycle.Reports)),
		slog.Bool("skipped", cycle.Skipped),
		slog.Int(logging.FieldStatusCode, status),
	)
	writeJSON(w, status, cycle, logger)
}

// SyncType runs one calendar type named by the {type} path segment.
func (h *AdminHandler) SyncType(w http.ResponseWriter, r *http.Request) {
	if !h.admit(w, r) {
		return
	}
	logger := loggerFromContext(r, h.logger)
	typ, err := calendars.Parse(r.PathValue("type"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), logger)
		return
	}
	ctx, cancel := h.syncContext(r)
	defer cancel()

	report, err := h.syncer.RunType(ctx, typ)
	switch {
	case errors.Is(err, reconcile.ErrConfigurationMissing):
		writeError(w, r, http.StatusNotFound, err.Error(), logger)
	case err != nil:
		logging.Warn(logger, "admin sync failed",
			slog.String(logging.FieldCalendarType, typ.String()),
			slog.Any("err", err),
		)
		writeJSON(w, http.StatusBadGateway, SyncResponse{Report: report, Error: err.Error()}, logger)
	default:
		logging.Info(logger, "admin sync complete",
			slog.String(logging.FieldCalendarType, typ.String()),
			slog.String("report", report.String()),
		)
		writeJSON(w, http.StatusOK, SyncResponse{Report: report}, logger)
	}
}

func (h *AdminHandler) admit(w http.ResponseWriter, r *http.Request) bool {
	if !requireMethod(w, r, http.MethodPost, h.logger) {
		return false
	}
	if !requestutil.Authorized(r, h.token) {
		logging.Warn(h.logger, "admin unauthorized",
			slog.String(logging.FieldPath, r.URL.Path),
			slog.String("client_ip", requestutil.ClientIP(r)),
		)
		writeError(w, r, http.StatusUnauthorized, "unauthorized", h.logger)
		return false
	}
	if h.syncer == nil {
		writeError(w, r, http.StatusServiceUnavailable, "sync not configured", h.logger)
		return false
	}
	return true
}

// syncContext detaches the run from client disconnects so a partially applied
// plan is not abandoned mid-write.
func (h *AdminHandler) syncContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), h.timeout)
}
