// Package usage records chat request consumption against monthly allowances.
package usage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"inkwell/internal/logging"
)

// Data is the persisted usage state.
type Data struct {
	Version string `json:"version"`

	// Month is the billing period the counters belong to, "2006-01" format.
	// Counters reset when the month rolls over.
	Month string `json:"month"`

	// Requests is the total request count for the month.
	Requests int `json:"requests"`

	// ByOperation breaks requests down by operation name.
	ByOperation map[string]int `json:"by_operation"`
}

// Tracker manages request recording and persistence.
type Tracker struct {
	mu       sync.Mutex
	data     Data
	filePath string
	dirty    bool
	now      func() time.Time
}

// NewTracker creates a usage tracker persisting under the workspace dot-dir.
func NewTracker(workspace string) (*Tracker, error) {
	dir := filepath.Join(workspace, ".inkwell")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create .inkwell dir: %w", err)
	}

	t := &Tracker{
		filePath: filepath.Join(dir, "usage.json"),
		now:      time.Now,
		data: Data{
			Version:     "1.0",
			ByOperation: make(map[string]int),
		},
	}

	if err := t.Load(); err != nil {
		// Corrupt or missing usage data is not fatal; start fresh.
		logging.Get(logging.CategoryUsage).Warnf("usage data unreadable, starting fresh: %v", err)
	}

	return t, nil
}

// Load reads the usage data from disk.
func (t *Tracker) Load() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	raw, err := os.ReadFile(t.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(raw, &t.data); err != nil {
		return err
	}
	if t.data.ByOperation == nil {
		t.data.ByOperation = make(map[string]int)
	}
	return nil
}

// Save writes the usage data to disk.
func (t *Tracker) Save() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.saveLocked()
}

func (t *Tracker) saveLocked() error {
	raw, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(t.filePath, raw, 0644)
}

// Track records one request for the named operation.
func (t *Tracker) Track(operation string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rolloverLocked()
	t.data.Requests++
	t.data.ByOperation[operation]++

	// Debounced auto-save
	if !t.dirty {
		t.dirty = true
		time.AfterFunc(5*time.Second, func() {
			_ = t.Save()
			t.mu.Lock()
			t.dirty = false
			t.mu.Unlock()
		})
	}
}

// Requests returns the request count for the current month.
func (t *Tracker) Requests() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rolloverLocked()
	return t.data.Requests
}

// PercentRemaining reports how much of an allowance is left, 0-100.
// A non-positive allowance means unlimited and always reads as 100.
func (t *Tracker) PercentRemaining(allowance int) float64 {
	if allowance <= 0 {
		return 100
	}

	used := t.Requests()
	remaining := allowance - used
	if remaining <= 0 {
		return 0
	}
	return float64(remaining) / float64(allowance) * 100
}

// rolloverLocked resets counters when the billing month changes.
func (t *Tracker) rolloverLocked() {
	month := t.now().Format("2006-01")
	if t.data.Month == month {
		return
	}
	if t.data.Month != "" {
		logging.Get(logging.CategoryUsage).Infof("usage month rollover: %s -> %s", t.data.Month, month)
	}
	t.data.Month = month
	t.data.Requests = 0
	t.data.ByOperation = make(map[string]int)
}

// Snapshot returns a copy of the current usage data.
func (t *Tracker) Snapshot() Data {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rolloverLocked()
	snap := t.data
	snap.ByOperation = make(map[string]int, len(t.data.ByOperation))
	for k, v := range t.data.ByOperation {
		snap.ByOperation[k] = v
	}
	return snap
}
