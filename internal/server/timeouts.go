package server

import "time"

const (
	readTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Minute // admin sync responds after the run finishes
	idleTimeout  = 60 * time.Second
)

// shutdownTimeout remains a var for tests to override.
var shutdownTimeout = 30 * time.Second
