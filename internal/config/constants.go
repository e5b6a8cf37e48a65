package config

import "time"

const (
	envCalendarIDs   = "CALENDAR_IDS"
	envCalendarsFile = "CALENDARS_FILE"

	defaultPort        = "4000"
	defaultLogLevel    = "info"
	defaultLogFormat   = "text"
	defaultSchedule    = "*/15 * * * *"
	defaultSyncOnStart = true
	defaultParallelism = 2
	defaultBackend     = BackendMemory
	defaultTimezone    = "Europe/London"

	defaultGatewayAttempts = 3
	defaultGatewayBackoff  = 500 * time.Millisecond
	// Google allows bursts but throttles sustained writes per calendar.
	defaultWriteInterval = 100 * time.Millisecond

	defaultMetricsEnabled = true
	defaultMetricsPort    = "9090"
	defaultServiceName    = "fixture-calendar-service"
	defaultOtlpInsecure   = true
)

// Calendar backends.
const (
	BackendGoogle = "google"
	BackendMemory = "memory"
)
