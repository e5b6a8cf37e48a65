package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/preston-bernstein/fixture-calendar-service/internal/auth"
	"github.com/preston-bernstein/fixture-calendar-service/internal/calendar"
	"github.com/preston-bernstein/fixture-calendar-service/internal/calendar/google"
	"github.com/preston-bernstein/fixture-calendar-service/internal/calendar/memory"
	"github.com/preston-bernstein/fixture-calendar-service/internal/config"
	"github.com/preston-bernstein/fixture-calendar-service/internal/metrics"
)

// gatewayFactory assembles the calendar backend with shared wrappers
// (instrumentation, write throttling and retry).
type gatewayFactory struct {
	logger  *slog.Logger
	metrics *metrics.Recorder
}

func newGatewayFactory(logger *slog.Logger, recorder *metrics.Recorder) gatewayFactory {
	return gatewayFactory{logger: logger, metrics: recorder}
}

// tokens returns nil for backends that need no credentials.
func (f gatewayFactory) tokens(ctx context.Context, cfg config.Config) (auth.TokenProvider, error) {
	if cfg.Backend() != config.BackendGoogle {
		return nil, nil
	}
	if cfg.Google.AccessToken != "" {
		return auth.NewStatic(cfg.Google.AccessToken), nil
	}
	p, err := auth.NewOAuthProvider(ctx, auth.OAuthConfig{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RefreshToken: cfg.Google.RefreshToken,
	})
	if err != nil {
		return nil, fmt.Errorf("google credentials: %w", err)
	}
	return p, nil
}

func (f gatewayFactory) build(ctx context.Context, cfg config.Config, tokens auth.TokenProvider) (calendar.Gateway, error) {
	base, err := f.selectBackend(ctx, cfg, tokens)
	if err != nil {
		return nil, err
	}
	instrumented := calendar.NewInstrumentedGateway(base, f.metrics)
	limited := calendar.NewRateLimitedGateway(instrumented, cfg.Gateway.WriteInterval, f.logger)
	return calendar.NewRetryingGateway(limited, f.logger, cfg.Gateway.MaxAttempts, cfg.Gateway.Backoff), nil
}

func (f gatewayFactory) selectBackend(ctx context.Context, cfg config.Config, tokens auth.TokenProvider) (calendar.Gateway, error) {
	switch cfg.Backend() {
	case config.BackendGoogle:
		gw, err := google.New(ctx, google.Config{
			Tokens:   tokens,
			TimeZone: cfg.EventTimezone,
			Logger:   f.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("google gateway: %w", err)
		}
		return gw, nil
	default:
		return memory.New(0), nil
	}
}
