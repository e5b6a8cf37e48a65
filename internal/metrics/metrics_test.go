package metrics

import (
	"errors"
	"testing"
	"time"
)

func TestRecorderTracksGatewayCallsAndErrors(t *testing.T) {
	rec := NewRecorder()

	rec.RecordGatewayCall("create", 10*time.Millisecond, nil)
	rec.RecordGatewayCall("create", 15*time.Millisecond, errors.New("boom"))

	snap := rec.Gateway("create")
	if snap.Calls != 2 {
		t.Fatalf("expected 2 calls, got %d", snap.Calls)
	}
	if snap.Errors != 1 {
		t.Fatalf("expected 1 error, got %d", snap.Errors)
	}
	if snap.LastCallLatency != 15*time.Millisecond {
		t.Fatalf("expected last latency to be 15ms, got %s", snap.LastCallLatency)
	}
	if other := rec.Gateway("delete"); other.Calls != 0 {
		t.Fatalf("expected empty stats for unknown op, got %+v", other)
	}
}

func TestRecorderTracksSyncRuns(t *testing.T) {
	rec := NewRecorder()

	rec.RecordSyncRun("fixtures", time.Second, SyncCounts{Created: 2}, nil)
	rec.RecordSyncRun("fixtures", 2*time.Second, SyncCounts{Updated: 1, Failures: 1}, errors.New("auth"))

	snap := rec.Runs("fixtures")
	if snap.Runs != 2 || snap.Errors != 1 {
		t.Fatalf("unexpected run snapshot %+v", snap)
	}
	if snap.Last.Updated != 1 || snap.Last.Failures != 1 || snap.Last.Created != 0 {
		t.Fatalf("expected last counts to be replaced, got %+v", snap.Last)
	}
	if snap.LastDuration != 2*time.Second {
		t.Fatalf("expected last duration 2s, got %s", snap.LastDuration)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var rec *Recorder
	rec.RecordGatewayCall("list", time.Millisecond, nil)
	rec.RecordSyncRun("fixtures", time.Millisecond, SyncCounts{}, nil)
	rec.RecordHTTPRequest("GET", "/health", 200, time.Millisecond)
	rec.RecordSchedulerCycle(time.Millisecond, nil)
	if rec.Gateway("list").Calls != 0 || rec.Runs("fixtures").Runs != 0 {
		t.Fatal("expected zero snapshots from nil recorder")
	}
}
