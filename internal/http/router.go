package http

import (
	nethttp "net/http"

	"github.com/preston-bernstein/fixture-calendar-service/internal/http/handlers"
)

// NewRouter registers HTTP routes on a ServeMux. admin may be nil to leave the
// admin routes unregistered.
func NewRouter(handler *handlers.Handler, admin *handlers.AdminHandler) nethttp.Handler {
	mux := nethttp.NewServeMux()
	mux.HandleFunc("/health", handler.Health)
	mux.HandleFunc("/ready", handler.Ready)
	mux.HandleFunc("/status", handler.Status)
	mux.HandleFunc("/calendars/{file}", handler.CalendarFeed)
	if admin != nil {
		mux.HandleFunc("/admin/sync", admin.SyncAll)
		mux.HandleFunc("/admin/sync/{type}", admin.SyncType)
	}
	return mux
}
