// Package ux stores small per-profile UI state that must survive restarts.
package ux

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FlagsVersion is the current schema version for flags.json.
const FlagsVersion = "1.0"

// FlagWelcomeBannerDismissed suppresses the welcome banner permanently
// once the user dismisses it.
const FlagWelcomeBannerDismissed = "banner.welcome_dismissed"

type flagsFile struct {
	Version string          `json:"version"`
	Flags   map[string]bool `json:"flags"`
}

// FlagStore persists named boolean flags under the workspace dot-dir.
// Unknown flags read as false.
type FlagStore struct {
	mu     sync.Mutex
	path   string
	data   flagsFile
	loaded bool
}

// NewFlagStore creates a flag store for the given workspace.
func NewFlagStore(workspace string) *FlagStore {
	return &FlagStore{
		path: filepath.Join(workspace, ".inkwell", "flags.json"),
	}
}

// Get returns the value of a flag, defaulting to false. A missing or
// unreadable file reads as all-false; the error surfaces on the next Set.
func (s *FlagStore) Get(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()
	return s.data.Flags[name]
}

// Set writes a flag value to disk immediately.
func (s *FlagStore) Set(name string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()
	s.data.Flags[name] = value

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create flags directory: %w", err)
	}
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal flags: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write flags: %w", err)
	}
	return nil
}

func (s *FlagStore) loadLocked() {
	if s.loaded {
		return
	}
	s.loaded = true
	s.data = flagsFile{Version: FlagsVersion, Flags: make(map[string]bool)}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	var parsed flagsFile
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return
	}
	if parsed.Flags == nil {
		parsed.Flags = make(map[string]bool)
	}
	if parsed.Version == "" {
		parsed.Version = FlagsVersion
	}
	s.data = parsed
}
