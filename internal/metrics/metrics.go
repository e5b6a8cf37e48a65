package metrics

import (
	"sync"
	"time"
)

// SyncCounts mirrors the per-run outcome totals of a reconciliation.
type SyncCounts struct {
	Created    int
	Updated    int
	Deleted    int
	Duplicates int
	Unchanged  int
	Failures   int
}

type gatewayStats struct {
	calls           int
	errors          int
	lastCallLatency time.Duration
}

type runStats struct {
	runs    int
	errors  int
	last    SyncCounts
	lastDur time.Duration
}

// Recorder captures lightweight, in-memory metrics about gateway calls and sync runs,
// forwarding to OpenTelemetry instruments when configured.
type Recorder struct {
	mu      sync.Mutex
	gateway map[string]*gatewayStats
	runs    map[string]*runStats
	otel    *otelInstruments
}

func NewRecorder() *Recorder {
	return newRecorder(nil)
}

func newRecorder(otel *otelInstruments) *Recorder {
	return &Recorder{
		gateway: make(map[string]*gatewayStats),
		runs:    make(map[string]*runStats),
		otel:    otel,
	}
}

// RecordGatewayCall counts one remote calendar operation (list/create/update/delete).
func (r *Recorder) RecordGatewayCall(op string, duration time.Duration, err error) {
	if r == nil {
		return
	}
	r.mu.Lock()
	stats, ok := r.gateway[op]
	if !ok {
		stats = &gatewayStats{}
		r.gateway[op] = stats
	}
	stats.calls++
	stats.lastCallLatency = duration
	if err != nil {
		stats.errors++
	}
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordGatewayCall(op, duration, err)
	}
}

// RecordSyncRun tracks one reconciliation run for a calendar type.
func (r *Recorder) RecordSyncRun(calendarType string, duration time.Duration, counts SyncCounts, err error) {
	if r == nil {
		return
	}
	r.mu.Lock()
	stats, ok := r.runs[calendarType]
	if !ok {
		stats = &runStats{}
		r.runs[calendarType] = stats
	}
	stats.runs++
	stats.last = counts
	stats.lastDur = duration
	if err != nil {
		stats.errors++
	}
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordSyncRun(calendarType, duration, counts, err)
	}
}

// RecordHTTPRequest tracks basic HTTP metrics.
func (r *Recorder) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordHTTPRequest(method, path, status, duration)
}

// RecordSchedulerCycle tracks full RunAll cycles and whether any calendar failed.
func (r *Recorder) RecordSchedulerCycle(duration time.Duration, err error) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordSchedulerCycle(duration, err)
}

// GatewaySnapshot is a copy of the stats for one gateway operation.
type GatewaySnapshot struct {
	Calls           int
	Errors          int
	LastCallLatency time.Duration
}

// Gateway returns the current stats for a gateway operation.
func (r *Recorder) Gateway(op string) GatewaySnapshot {
	if r == nil {
		return GatewaySnapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stats, ok := r.gateway[op]
	if !ok || stats == nil {
		return GatewaySnapshot{}
	}
	return GatewaySnapshot{
		Calls:           stats.calls,
		Errors:          stats.errors,
		LastCallLatency: stats.lastCallLatency,
	}
}

// RunSnapshot is a copy of the run stats for one calendar type.
type RunSnapshot struct {
	Runs         int
	Errors       int
	Last         SyncCounts
	LastDuration time.Duration
}

// Runs returns the current run stats for a calendar type.
func (r *Recorder) Runs(calendarType string) RunSnapshot {
	if r == nil {
		return RunSnapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stats, ok := r.runs[calendarType]
	if !ok || stats == nil {
		return RunSnapshot{}
	}
	return RunSnapshot{
		Runs:         stats.runs,
		Errors:       stats.errors,
		Last:         stats.last,
		LastDuration: stats.lastDur,
	}
}
