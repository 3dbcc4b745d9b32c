package store

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SessionStore {
	t.Helper()
	s, err := NewSessionStore(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("new session store failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestEmptyStoreHasNoSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sessions, err := s.RecentSessions(ctx, 10)
	if err != nil {
		t.Fatalf("recent sessions failed: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("expected no sessions, got %d", len(sessions))
	}

	n, err := s.CountSessions(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected zero count, got %d", n)
	}
}

func TestStoreTurnCreatesSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.StoreTurn("sess-1", 1, "user", "hello there"); err != nil {
		t.Fatalf("store turn failed: %v", err)
	}
	if err := s.StoreTurn("sess-1", 1, "assistant", "hi!"); err != nil {
		t.Fatalf("store turn failed: %v", err)
	}

	sessions, err := s.RecentSessions(ctx, 10)
	if err != nil {
		t.Fatalf("recent sessions failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	if sessions[0].ID != "sess-1" {
		t.Fatalf("unexpected session id %q", sessions[0].ID)
	}
	if sessions[0].FirstPrompt != "hello there" {
		t.Fatalf("expected first prompt captured, got %q", sessions[0].FirstPrompt)
	}
	if sessions[0].TurnCount != 2 {
		t.Fatalf("expected 2 turns, got %d", sessions[0].TurnCount)
	}
}

func TestStoreTurnIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.StoreTurn("sess-1", 1, "user", "same turn"); err != nil {
			t.Fatalf("store turn failed: %v", err)
		}
	}

	sessions, err := s.RecentSessions(ctx, 10)
	if err != nil {
		t.Fatalf("recent sessions failed: %v", err)
	}
	if sessions[0].TurnCount != 1 {
		t.Fatalf("expected replayed turn skipped, turn count %d", sessions[0].TurnCount)
	}
}

func TestSessionTurnsOrdered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	turns := []struct {
		n       int
		role    string
		content string
	}{
		{1, "user", "first question"},
		{1, "assistant", "first answer"},
		{2, "user", "second question"},
		{2, "assistant", "second answer"},
	}
	for _, turn := range turns {
		if err := s.StoreTurn("sess-1", turn.n, turn.role, turn.content); err != nil {
			t.Fatalf("store turn failed: %v", err)
		}
	}

	got, err := s.SessionTurns(ctx, "sess-1")
	if err != nil {
		t.Fatalf("session turns failed: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 turns, got %d", len(got))
	}
	if got[0].Role != "user" || got[0].Content != "first question" {
		t.Fatalf("unexpected first turn: %+v", got[0])
	}
	if got[3].Role != "assistant" || got[3].Content != "second answer" {
		t.Fatalf("unexpected last turn: %+v", got[3])
	}
}

func TestRecentSessionsRespectsLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := s.StoreTurn(id, 1, "user", "prompt "+id); err != nil {
			t.Fatalf("store turn failed: %v", err)
		}
	}

	sessions, err := s.RecentSessions(ctx, 2)
	if err != nil {
		t.Fatalf("recent sessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected limit 2 respected, got %d", len(sessions))
	}

	n, err := s.CountSessions(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 sessions, got %d", n)
	}
}
