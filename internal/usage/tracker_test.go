package usage

import (
	"testing"
	"time"
)

func TestTrackIncrementsCounters(t *testing.T) {
	tr, err := NewTracker(t.TempDir())
	if err != nil {
		t.Fatalf("new tracker failed: %v", err)
	}

	tr.Track("chat")
	tr.Track("chat")
	tr.Track("title")

	if got := tr.Requests(); got != 3 {
		t.Fatalf("expected 3 requests, got %d", got)
	}
	snap := tr.Snapshot()
	if snap.ByOperation["chat"] != 2 {
		t.Fatalf("expected 2 chat requests, got %d", snap.ByOperation["chat"])
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	workspace := t.TempDir()

	tr, err := NewTracker(workspace)
	if err != nil {
		t.Fatalf("new tracker failed: %v", err)
	}
	tr.Track("chat")
	if err := tr.Save(); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	tr2, err := NewTracker(workspace)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if got := tr2.Requests(); got != 1 {
		t.Fatalf("expected persisted request count 1, got %d", got)
	}
}

func TestPercentRemaining(t *testing.T) {
	tr, err := NewTracker(t.TempDir())
	if err != nil {
		t.Fatalf("new tracker failed: %v", err)
	}

	if got := tr.PercentRemaining(0); got != 100 {
		t.Fatalf("unlimited allowance should read 100, got %v", got)
	}
	if got := tr.PercentRemaining(4); got != 100 {
		t.Fatalf("untouched allowance should read 100, got %v", got)
	}

	tr.Track("chat")
	if got := tr.PercentRemaining(4); got != 75 {
		t.Fatalf("expected 75 remaining, got %v", got)
	}

	tr.Track("chat")
	tr.Track("chat")
	tr.Track("chat")
	if got := tr.PercentRemaining(4); got != 0 {
		t.Fatalf("expected exhausted allowance, got %v", got)
	}

	// Overconsumption never goes negative.
	tr.Track("chat")
	if got := tr.PercentRemaining(4); got != 0 {
		t.Fatalf("expected floor at 0, got %v", got)
	}
}

func TestMonthRolloverResetsCounters(t *testing.T) {
	tr, err := NewTracker(t.TempDir())
	if err != nil {
		t.Fatalf("new tracker failed: %v", err)
	}

	current := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return current }

	tr.Track("chat")
	if got := tr.Requests(); got != 1 {
		t.Fatalf("expected 1 request, got %d", got)
	}

	current = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	if got := tr.Requests(); got != 0 {
		t.Fatalf("expected counters reset after rollover, got %d", got)
	}
	if got := tr.PercentRemaining(10); got != 100 {
		t.Fatalf("expected full allowance after rollover, got %v", got)
	}
}
