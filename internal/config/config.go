package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/robfig/cron/v3"
)

// Config holds runtime configuration for the service.
type Config struct {
	Port          string `env:"PORT"`
	LogLevel      string `env:"LOG_LEVEL"`
	LogFormat     string `env:"LOG_FORMAT"`
	AdminToken    string `env:"ADMIN_TOKEN"`
	DatabasePath  string `env:"DATABASE_PATH"`
	FixturesFile  string `env:"FIXTURES_FILE"`
	EventTimezone string `env:"EVENT_TIMEZONE"`

	Sync      SyncConfig
	Calendars CalendarConfig
	Google    GoogleConfig
	Gateway   GatewayConfig
	Metrics   MetricsConfig
}

// SyncConfig controls when reconciliation runs.
type SyncConfig struct {
	Schedule    string `env:"SYNC_SCHEDULE"`
	OnStart     bool   `env:"SYNC_ON_START"`
	Parallelism int    `env:"SYNC_PARALLELISM"`
}

// CalendarConfig selects the backend and maps calendar types to remote calendars.
type CalendarConfig struct {
	Backend string      `env:"CALENDAR_BACKEND"`
	IDs     CalendarIDs `env:"CALENDAR_IDS"`
	File    string      `env:"CALENDARS_FILE"`
}

// GoogleConfig holds credentials for the Google Calendar backend. Either a static
// access token or a client id/secret/refresh token triple is needed.
type GoogleConfig struct {
	AccessToken  string `env:"GOOGLE_ACCESS_TOKEN"`
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	RefreshToken string `env:"GOOGLE_REFRESH_TOKEN"`
}

// HasRefresh reports whether refreshable credentials are configured.
func (g GoogleConfig) HasRefresh() bool {
	return g.ClientID != "" && g.ClientSecret != "" && g.RefreshToken != ""
}

// GatewayConfig tunes the retry and throttling decorators around the backend.
type GatewayConfig struct {
	MaxAttempts   int           `env:"GATEWAY_MAX_ATTEMPTS"`
	Backoff       time.Duration `env:"GATEWAY_BACKOFF"`
	WriteInterval time.Duration `env:"GATEWAY_WRITE_INTERVAL"`
}

// Defaults returns the configuration used when no environment is set.
func Defaults() Config {
	return Config{
		Port:          defaultPort,
		LogLevel:      defaultLogLevel,
		LogFormat:     defaultLogFormat,
		EventTimezone: defaultTimezone,
		Sync: SyncConfig{
			Schedule:    defaultSchedule,
			OnStart:     defaultSyncOnStart,
			Parallelism: defaultParallelism,
		},
		Calendars: CalendarConfig{Backend: defaultBackend},
		Gateway: GatewayConfig{
			MaxAttempts:   defaultGatewayAttempts,
			Backoff:       defaultGatewayBackoff,
			WriteInterval: defaultWriteInterval,
		},
		Metrics: defaultMetrics(),
	}
}

// Load reads configuration from the environment over Defaults, merges the
// calendar mapping file if one is named, and validates the result.
func Load() (Config, error) {
	cfg := Defaults()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Calendars.File != "" {
		fromFile, err := LoadCalendarFile(cfg.Calendars.File)
		if err != nil {
			return Config{}, err
		}
		cfg.Calendars.IDs = fromFile.Merge(cfg.Calendars.IDs)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	var errs []error
	if _, err := cron.ParseStandard(c.Sync.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("SYNC_SCHEDULE %q: %w", c.Sync.Schedule, err))
	}
	if c.Sync.Parallelism <= 0 {
		errs = append(errs, fmt.Errorf("SYNC_PARALLELISM must be positive, got %d", c.Sync.Parallelism))
	}
	if c.Gateway.MaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("GATEWAY_MAX_ATTEMPTS must be positive, got %d", c.Gateway.MaxAttempts))
	}
	if c.Gateway.WriteInterval < 0 || c.Gateway.Backoff < 0 {
		errs = append(errs, errors.New("gateway durations must not be negative"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("EVENT_TIMEZONE: %w", err))
	}
	switch strings.ToLower(c.Calendars.Backend) {
	case BackendMemory:
	case BackendGoogle:
		if c.Google.AccessToken == "" && !c.Google.HasRefresh() {
			errs = append(errs, errors.New("google backend needs GOOGLE_ACCESS_TOKEN or GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and GOOGLE_REFRESH_TOKEN"))
		}
		if len(c.Calendars.IDs.Types()) == 0 {
			errs = append(errs, errors.New("google backend needs at least one calendar in CALENDAR_IDS or CALENDARS_FILE"))
		}
	default:
		errs = append(errs, fmt.Errorf("CALENDAR_BACKEND %q is not one of %s, %s", c.Calendars.Backend, BackendGoogle, BackendMemory))
	}
	return errors.Join(errs...)
}

// Location resolves EVENT_TIMEZONE.
func (c Config) Location() (*time.Location, error) {
	if c.EventTimezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.EventTimezone)
}

// Backend returns the normalized calendar backend name.
func (c Config) Backend() string {
	return strings.ToLower(c.Calendars.Backend)
}
