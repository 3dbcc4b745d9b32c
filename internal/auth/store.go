// Package auth manages the locally stored account record.
// A missing account file means the user is anonymous.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"inkwell/internal/logging"
)

// Plan is the subscription level attached to an account.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// ErrAnonymous is returned for operations that require a signed-in account.
var ErrAnonymous = errors.New("not signed in")

// Account is the stored identity record.
type Account struct {
	Email     string    `json:"email"`
	Plan      Plan      `json:"plan"`
	DeviceID  string    `json:"deviceId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store persists the account record as JSON under the workspace dot-dir.
type Store struct {
	mu      sync.RWMutex
	path    string
	account *Account
}

// NewStore creates an account store for the given workspace and loads any
// existing record.
func NewStore(workspace string) (*Store, error) {
	s := &Store{
		path: filepath.Join(workspace, ".inkwell", "account.json"),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read account file: %w", err)
	}

	var acct Account
	if err := json.Unmarshal(raw, &acct); err != nil {
		return fmt.Errorf("failed to parse account file: %w", err)
	}
	s.account = &acct
	return nil
}

func (s *Store) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create account directory: %w", err)
	}
	raw, err := json.MarshalIndent(s.account, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}
	// 0600: the account file identifies the user.
	if err := os.WriteFile(s.path, raw, 0600); err != nil {
		return fmt.Errorf("failed to write account: %w", err)
	}
	return nil
}

// Current returns the signed-in account, or nil when anonymous.
func (s *Store) Current() *Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.account == nil {
		return nil
	}
	acct := *s.account
	return &acct
}

// Anonymous reports whether no account is signed in.
func (s *Store) Anonymous() bool {
	return s.Current() == nil
}

// SignIn records a new free-plan account for the given email.
func (s *Store) SignIn(email string) error {
	if email == "" {
		return fmt.Errorf("email required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.account = &Account{
		Email:     email,
		Plan:      PlanFree,
		DeviceID:  uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.saveLocked(); err != nil {
		s.account = nil
		return err
	}

	logging.Get(logging.CategoryAuth).Infof("signed in: %s", email)
	return nil
}

// Upgrade moves the signed-in account to the pro plan.
func (s *Store) Upgrade() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.account == nil {
		return ErrAnonymous
	}
	s.account.Plan = PlanPro
	s.account.UpdatedAt = time.Now()
	if err := s.saveLocked(); err != nil {
		return err
	}

	logging.Get(logging.CategoryAuth).Infof("upgraded to pro: %s", s.account.Email)
	return nil
}

// SignOut removes the stored account, returning the user to anonymous.
func (s *Store) SignOut() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.account == nil {
		return nil
	}
	s.account = nil
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove account file: %w", err)
	}
	return nil
}
