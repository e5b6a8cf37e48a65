package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/preston-bernstein/fixture-calendar-service/internal/domain/calendars"
	"github.com/preston-bernstein/fixture-calendar-service/internal/reconcile"
	"github.com/preston-bernstein/fixture-calendar-service/internal/scheduler"
	"github.com/preston-bernstein/fixture-calendar-service/internal/testutil"
)

type stubSyncer struct {
	cycle   scheduler.Cycle
	report  reconcile.Report
	err     error
	gotType calendars.Type
	ctxErr  error
}

func (s *stubSyncer) RunAll(ctx context.Context) scheduler.Cycle {
	s.ctxErr = ctx.Err()
	return s.cycle
}

func (s *stubSyncer) RunType(ctx context.Context, typ calendars.Type) (reconcile.Report, error) {
	s.gotType = typ
	s.ctxErr = ctx.Err()
	return s.report, s.err
}

func adminRequest(method, path, token string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestAdminSyncRequiresAuth(t *testing.T) {
	h := NewAdminHandler(&stubSyncer{}, "secret", nil)

	rr := testutil.ServeRequest(http.HandlerFunc(h.SyncAll), adminRequest(http.MethodPost, "/admin/sync", ""))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)

	rr = testutil.ServeRequest(http.HandlerFunc(h.SyncAll), adminRequest(http.MethodPost, "/admin/sync", "wrong"))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}

func TestAdminSyncDisabledWithoutToken(t *testing.T) {
	h := NewAdminHandler(&stubSyncer{}, "", nil)
	rr := testutil.ServeRequest(http.HandlerFunc(h.SyncAll), adminRequest(http.MethodPost, "/admin/sync", "anything"))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}

func TestAdminSyncRejectsGet(t *testing.T) {
	h := NewAdminHandler(&stubSyncer{}, "secret", nil)
	rr := testutil.ServeRequest(http.HandlerFunc(h.SyncAll), adminRequest(http.MethodGet, "/admin/sync", "secret"))
	testutil.AssertStatus(t, rr, http.StatusMethodNotAllowed)
}

func TestAdminSyncAll(t *testing.T) {
	syncer := &stubSyncer{cycle: scheduler.Cycle{
		Reports: []reconcile.Report{{CalendarType: calendars.Fixtures, Created: 1}},
	}}
	h := NewAdminHandler(syncer, "secret", nil)

	rr := testutil.ServeRequest(http.HandlerFunc(h.SyncAll), adminRequest(http.MethodPost, "/admin/sync", "secret"))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var resp scheduler.Cycle
	testutil.DecodeJSON(t, rr, &resp)
	if len(resp.Reports) != 1 || resp.Reports[0].Created != 1 {
		t.Fatalf("unexpected cycle %+v", resp)
	}
}

func TestAdminSyncAllSkippedIsUnavailable(t *testing.T) {
	h := NewAdminHandler(&stubSyncer{cycle: scheduler.Cycle{Skipped: true, Error: "no valid token"}}, "secret", nil)
	rr := testutil.ServeRequest(http.HandlerFunc(h.SyncAll), adminRequest(http.MethodPost, "/admin/sync", "secret"))
	testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
}

func TestAdminSyncSurvivesClientCancel(t *testing.T) {
	syncer := &stubSyncer{}
	h := NewAdminHandler(syncer, "secret", nil)

	req := adminRequest(http.MethodPost, "/admin/sync/fixtures", "secret")
	req.SetPathValue("type", "fixtures")
	ctx, cancel := context.WithCancel(req.Context())
	cancel()
	rr := testutil.ServeRequest(http.HandlerFunc(h.SyncType), req.WithContext(ctx))

	testutil.AssertStatus(t, rr, http.StatusOK)
	if syncer.ctxErr != nil {
		t.Fatalf("expected run context detached from request, got %v", syncer.ctxErr)
	}
}

func TestAdminSyncType(t *testing.T) {
	tests := []struct {
		name    string
		typ     string
		err     error
		want    int
		wantTyp calendars.Type
	}{
		{"ok", "General-Sale", nil, http.StatusOK, calendars.GeneralSale},
		{"unknown type", "dinner", nil, http.StatusBadRequest, ""},
		{"not configured", "attended", fmt.Errorf("%w: attended", reconcile.ErrConfigurationMissing), http.StatusNotFound, calendars.Attended},
		{"run failed", "fixtures", errors.New("remote unavailable"), http.StatusBadGateway, calendars.Fixtures},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			syncer := &stubSyncer{err: tt.err, report: reconcile.Report{CalendarType: tt.wantTyp}}
			h := NewAdminHandler(syncer, "secret", nil)

			req := adminRequest(http.MethodPost, "/admin/sync/"+tt.typ, "secret")
			req.SetPathValue("type", tt.typ)
			rr := testutil.ServeRequest(http.HandlerFunc(h.SyncType), req)

			testutil.AssertStatus(t, rr, tt.want)
			if syncer.gotType != tt.wantTyp {
				t.Fatalf("expected run for %q, got %q", tt.wantTyp, syncer.gotType)
			}
		})
	}
}
