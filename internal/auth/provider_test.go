package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/oauth2"
)

func TestStaticProvider(t *testing.T) {
	tok, err := NewStatic(" abc ").CurrentToken(context.Background())
	if err != nil || tok != "abc" {
		t.Fatalf("expected abc, got %q %v", tok, err)
	}
	if _, err := NewStatic("").CurrentToken(context.Background()); !errors.Is(err, ErrNoValidToken) {
		t.Fatalf("expected ErrNoValidToken, got %v", err)
	}
}

func tokenServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.Form.Get("grant_type") != "refresh_token" || r.Form.Get("refresh_token") != "refresh" {
			t.Errorf("unexpected refresh request %v", r.Form)
		}
		if status != http.StatusOK {
			http.Error(w, `{"error":"invalid_grant"}`, status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "fresh",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOAuthProviderRefreshes(t *testing.T) {
	srv := tokenServer(t, http.StatusOK)
	p, err := NewOAuthProvider(context.Background(), OAuthConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		RefreshToken: "refresh",
		Endpoint:     oauth2.Endpoint{TokenURL: srv.URL, AuthStyle: oauth2.AuthStyleInParams},
	})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	tok, err := p.CurrentToken(context.Background())
	if err != nil || tok != "fresh" {
		t.Fatalf("expected fresh token, got %q %v", tok, err)
	}
	if _, ok := p.Expiry(); !ok {
		t.Fatalf("expected expiry to be known")
	}
}

func TestOAuthProviderRejectedRefresh(t *testing.T) {
	srv := tokenServer(t, http.StatusBadRequest)
	p, err := NewOAuthProvider(context.Background(), OAuthConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		RefreshToken: "refresh",
		Endpoint:     oauth2.Endpoint{TokenURL: srv.URL, AuthStyle: oauth2.AuthStyleInParams},
	})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	if _, err := p.CurrentToken(context.Background()); !errors.Is(err, ErrNoValidToken) {
		t.Fatalf("expected ErrNoValidToken, got %v", err)
	}
}

func TestNewOAuthProviderRequiresCredentials(t *testing.T) {
	if _, err := NewOAuthProvider(context.Background(), OAuthConfig{ClientID: "id"}); !errors.Is(err, ErrNoValidToken) {
		t.Fatalf("expected ErrNoValidToken, got %v", err)
	}
}

func TestTokenSourceAdapter(t *testing.T) {
	src := TokenSource(context.Background(), NewStatic("abc"))
	tok, err := src.Token()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if tok.AccessToken != "abc" || tok.Type() != "Bearer" {
		t.Fatalf("unexpected token %+v", tok)
	}
	if _, err := TokenSource(context.Background(), NewStatic("")).Token(); !errors.Is(err, ErrNoValidToken) {
		t.Fatalf("expected ErrNoValidToken, got %v", err)
	}
}
