// Package auth supplies access tokens for the remote calendar. Acquiring them is
// someone else's job; this package only hands out what it has.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ErrNoValidToken means no usable access token is available right now.
var ErrNoValidToken = errors.New("no valid access token")

// CalendarScope is the OAuth scope needed to manage events.
const CalendarScope = "https://www.googleapis.com/auth/calendar.events"

// TokenProvider returns a current access token or ErrNoValidToken.
type TokenProvider interface {
	CurrentToken(ctx context.Context) (string, error)
}

// StaticProvider serves a fixed token, typically from the environment.
type StaticProvider struct {
	token string
}

// NewStatic wraps a fixed access token.
func NewStatic(token string) StaticProvider {
	return StaticProvider{token: strings.TrimSpace(token)}
}

// CurrentToken implements TokenProvider.
func (s StaticProvider) CurrentToken(context.Context) (string, error) {
	if s.token == "" {
		return "", ErrNoValidToken
	}
	return s.token, nil
}

// OAuthConfig holds the credentials for refreshing tokens.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	// Endpoint defaults to Google's.
	Endpoint oauth2.Endpoint
}

// OAuthProvider refreshes access tokens from a long-lived refresh token and
// caches them until shortly before expiry.
type OAuthProvider struct {
	source oauth2.TokenSource

	mu   sync.Mutex
	last *oauth2.Token
}

// NewOAuthProvider builds a refreshing provider. ctx carries the HTTP client used
// for refresh calls (oauth2.HTTPClient) and must outlive the provider.
func NewOAuthProvider(ctx context.Context, cfg OAuthConfig) (*OAuthProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, fmt.Errorf("%w: client id, client secret and refresh token are required", ErrNoValidToken)
	}
	endpoint := cfg.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = google.Endpoint
	}
	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       []string{CalendarScope},
	}
	src := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
	return &OAuthProvider{source: oauth2.ReuseTokenSource(nil, src)}, nil
}

// CurrentToken implements TokenProvider.
func (p *OAuthProvider) CurrentToken(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tok, err := p.source.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoValidToken, err)
	}
	if !tok.Valid() {
		return "", ErrNoValidToken
	}
	p.mu.Lock()
	p.last = tok
	p.mu.Unlock()
	return tok.AccessToken, nil
}

// Expiry returns when the most recently served token expires, if known.
func (p *OAuthProvider) Expiry() (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil || p.last.Expiry.IsZero() {
		return time.Time{}, false
	}
	return p.last.Expiry, true
}

// TokenSource adapts a provider to oauth2 so HTTP clients pick up the current token
// on every request.
func TokenSource(ctx context.Context, p TokenProvider) oauth2.TokenSource {
	return providerSource{ctx: ctx, provider: p}
}

type providerSource struct {
	ctx      context.Context
	provider TokenProvider
}

func (s providerSource) Token() (*oauth2.Token, error) {
	tok, err := s.provider.CurrentToken(s.ctx)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}, nil
}
