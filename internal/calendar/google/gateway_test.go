package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/preston-bernstein/fixture-calendar-service/internal/auth"
	"github.com/preston-bernstein/fixture-calendar-service/internal/calendar"
)

type fakeAPI struct {
	mu         sync.Mutex
	pages      map[string]string // pageToken -> body
	listFails  int
	createCode int
	patchCode  int
	deleteCode int
	lastAuth   string
	lastBody   map[string]any
	listCalls  int
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /calendars/{cal}/events", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.listCalls++
		f.lastAuth = r.Header.Get("Authorization")
		if f.listFails > 0 {
			f.listFails--
			writeError(w, http.StatusServiceUnavailable)
			return
		}
		if r.URL.Query().Get("maxResults") != "250" {
			t.Errorf("expected maxResults=250, got %q", r.URL.Query().Get("maxResults"))
		}
		body, ok := f.pages[r.URL.Query().Get("pageToken")]
		if !ok {
			writeError(w, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	})
	mux.HandleFunc("POST /calendars/{cal}/events", func(w http.ResponseWriter, r *http.Request) {
		f.record(t, r)
		if f.createCode != 0 {
			writeError(w, f.createCode)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":                 "new-1",
			"summary":            f.lastBody["summary"],
			"start":              f.lastBody["start"],
			"end":                f.lastBody["end"],
			"extendedProperties": f.lastBody["extendedProperties"],
		})
	})
	mux.HandleFunc("PATCH /calendars/{cal}/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.record(t, r)
		if f.patchCode != 0 {
			writeError(w, f.patchCode)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"id":%q}`, r.PathValue("id"))
	})
	mux.HandleFunc("DELETE /calendars/{cal}/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.record(t, r)
		if f.deleteCode != 0 {
			writeError(w, f.deleteCode)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func (f *fakeAPI) record(t *testing.T, r *http.Request) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastAuth = r.Header.Get("Authorization")
	f.lastBody = nil
	if r.Body == nil {
		return
	}
	raw, _ := io.ReadAll(r.Body)
	if len(raw) == 0 {
		return
	}
	if err := json.Unmarshal(raw, &f.lastBody); err != nil {
		t.Errorf("decode body: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":%q}}`, code, http.StatusText(code))
}

func newTestGateway(t *testing.T, api *fakeAPI, tokens auth.TokenProvider) *Gateway {
	t.Helper()
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)
	gw, err := New(context.Background(), Config{
		Tokens:        tokens,
		Endpoint:      srv.URL + "/",
		HTTPClient:    srv.Client(),
		ReadRetries:   2,
		ReadRetryWait: time.Millisecond,
		TimeZone:      "Europe/London",
	})
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	return gw
}

const (
	pageOne = `{"items":[
		{"id":"a","summary":"A (H)","description":"d","start":{"dateTime":"2024-03-01T15:00:00Z"},"end":{"dateTime":"2024-03-01T17:00:00Z"},"extendedProperties":{"private":{"gameId":"1"}}},
		{"id":"b","summary":"Lunch","start":{"date":"2024-03-02"},"end":{"date":"2024-03-03"}}
	],"nextPageToken":"p2"}`
	pageTwo = `{"items":[
		{"id":"c","summary":"C (A)","start":{"dateTime":"2024-03-04T15:00:00+01:00"},"end":{"dateTime":"2024-03-04T17:00:00+01:00"},"extendedProperties":{"private":{"gameId":"3"}}}
	]}`
)

func TestListEventsFollowsPageTokens(t *testing.T) {
	api := &fakeAPI{pages: map[string]string{"": pageOne, "p2": pageTwo}}
	gw := newTestGateway(t, api, auth.NewStatic("tok"))

	var ids []string
	for ev, err := range gw.ListEvents(context.Background(), "cal-1") {
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		ids = append(ids, ev.ID)
		if ev.ID == "a" {
			if gid, _ := ev.Property(calendar.GameIDProperty); gid != "1" {
				t.Fatalf("expected gameId 1, got %q", gid)
			}
			if !ev.Start.Equal(time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)) {
				t.Fatalf("unexpected start %v", ev.Start)
			}
		}
		if ev.ID == "b" {
			if _, ok := ev.Property(calendar.GameIDProperty); ok {
				t.Fatalf("foreign event should carry no game id")
			}
		}
	}
	if fmt.Sprint(ids) != "[a b c]" {
		t.Fatalf("unexpected ids %v", ids)
	}
	if api.lastAuth != "Bearer tok" {
		t.Fatalf("expected bearer token, got %q", api.lastAuth)
	}
}

func TestListEventsRetriesTransientPages(t *testing.T) {
	api := &fakeAPI{pages: map[string]string{"": pageTwo}, listFails: 1}
	gw := newTestGateway(t, api, auth.NewStatic("tok"))

	count := 0
	for _, err := range gw.ListEvents(context.Background(), "cal-1") {
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		count++
	}
	if count != 1 || api.listCalls != 2 {
		t.Fatalf("expected one retry then success, got count=%d calls=%d", count, api.listCalls)
	}
}

func TestListEventsSurfacesPersistentOutage(t *testing.T) {
	api := &fakeAPI{pages: map[string]string{"": pageTwo}, listFails: 10}
	gw := newTestGateway(t, api, auth.NewStatic("tok"))

	for _, err := range gw.ListEvents(context.Background(), "cal-1") {
		if !errors.Is(err, calendar.ErrRemoteUnavailable) {
			t.Fatalf("expected unavailable, got %v", err)
		}
		return
	}
	t.Fatalf("expected an error from the sequence")
}

func TestListEventsWithoutTokenIsAuthExpired(t *testing.T) {
	api := &fakeAPI{pages: map[string]string{"": pageTwo}}
	gw := newTestGateway(t, api, auth.NewStatic(""))

	for _, err := range gw.ListEvents(context.Background(), "cal-1") {
		if !errors.Is(err, calendar.ErrRemoteAuthExpired) {
			t.Fatalf("expected auth expired, got %v", err)
		}
		if api.listCalls != 0 {
			t.Fatalf("request should not reach the API without a token")
		}
		return
	}
	t.Fatalf("expected an error from the sequence")
}

func TestCreateEventSendsPayload(t *testing.T) {
	api := &fakeAPI{}
	gw := newTestGateway(t, api, auth.NewStatic("tok"))
	start := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)

	ev, err := gw.CreateEvent(context.Background(), "cal-1", calendar.Payload{
		Title:  "Rovers (H)",
		Start:  start,
		End:    start.Add(2 * time.Hour),
		GameID: "7",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ev.ID != "new-1" || !ev.Start.Equal(start) {
		t.Fatalf("unexpected event %+v", ev)
	}
	props := api.lastBody["extendedProperties"].(map[string]any)["private"].(map[string]any)
	if props[calendar.GameIDProperty] != "7" {
		t.Fatalf("expected gameId property, got %v", props)
	}
	if tz := api.lastBody["start"].(map[string]any)["timeZone"]; tz != "Europe/London" {
		t.Fatalf("expected time zone, got %v", tz)
	}
}

func TestWriteErrorsAreClassified(t *testing.T) {
	cases := []struct {
		name string
		code int
		want error
	}{
		{"unauthorized", http.StatusUnauthorized, calendar.ErrRemoteAuthExpired},
		{"throttled", http.StatusTooManyRequests, calendar.ErrRemoteUnavailable},
		{"server", http.StatusBadGateway, calendar.ErrRemoteUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := &fakeAPI{createCode: tc.code}
			gw := newTestGateway(t, api, auth.NewStatic("tok"))
			_, err := gw.CreateEvent(context.Background(), "cal-1", calendar.Payload{GameID: "1"})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			remote, ok := calendar.AsRemoteError(err)
			if !ok || remote.StatusCode != tc.code || remote.Op != calendar.OpCreate {
				t.Fatalf("unexpected remote error %+v", remote)
			}
		})
	}
}

func TestUpdateMissingEventIsNotFound(t *testing.T) {
	api := &fakeAPI{patchCode: http.StatusNotFound}
	gw := newTestGateway(t, api, auth.NewStatic("tok"))
	err := gw.UpdateEvent(context.Background(), "cal-1", "gone", calendar.Payload{GameID: "1"})
	if !errors.Is(err, calendar.ErrRemoteNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteTreatsGoneAsSuccess(t *testing.T) {
	for _, code := range []int{http.StatusNotFound, http.StatusGone} {
		api := &fakeAPI{deleteCode: code}
		gw := newTestGateway(t, api, auth.NewStatic("tok"))
		if err := gw.DeleteEvent(context.Background(), "cal-1", "x"); err != nil {
			t.Fatalf("status %d: expected nil, got %v", code, err)
		}
	}

	api := &fakeAPI{deleteCode: http.StatusInternalServerError}
	gw := newTestGateway(t, api, auth.NewStatic("tok"))
	if err := gw.DeleteEvent(context.Background(), "cal-1", "x"); !errors.Is(err, calendar.ErrRemoteUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}
