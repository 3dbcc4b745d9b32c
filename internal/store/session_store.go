// Package store persists chat session history in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"inkwell/internal/logging"
)

// SessionSummary is a compact view of a prior session.
type SessionSummary struct {
	ID          string
	StartedAt   time.Time
	TurnCount   int
	FirstPrompt string
}

// SessionStore implements chat history persistence using SQLite.
type SessionStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// NewSessionStore initializes the SQLite database at the given path.
func NewSessionStore(path string) (*SessionStore, error) {
	log := logging.Get(logging.CategoryStore)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		log.Debugf("failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		log.Debugf("failed to set sqlite journal_mode=WAL: %v", err)
	}
	// synchronous=NORMAL is safe with WAL and much faster than FULL.
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		log.Debugf("failed to set sqlite synchronous=NORMAL: %v", err)
	}

	s := &SessionStore{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Infof("session store ready at %s", path)
	return s, nil
}

func (s *SessionStore) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			turn_count INTEGER DEFAULT 0,
			first_prompt TEXT DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS session_turns (
			session_id  TEXT NOT NULL,
			turn_number INTEGER NOT NULL,
			role        TEXT NOT NULL,
			content     TEXT NOT NULL,
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (session_id, turn_number, role)
		);

		CREATE INDEX IF NOT EXISTS idx_turns_session ON session_turns(session_id);
	`)
	return err
}

// StoreTurn records a conversation turn and updates the session row.
// Uses INSERT OR IGNORE so replayed turns are silently skipped.
func (s *SessionStore) StoreTurn(sessionID string, turnNumber int, role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`INSERT OR IGNORE INTO session_turns (session_id, turn_number, role, content)
		 VALUES (?, ?, ?, ?)`,
		sessionID, turnNumber, role, content,
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Errorf("failed to store turn: session=%s turn=%d: %v", sessionID, turnNumber, err)
		return err
	}
	inserted, _ := res.RowsAffected()
	if inserted == 0 {
		return nil
	}

	firstPrompt := ""
	if turnNumber == 1 && role == "user" {
		firstPrompt = content
	}
	_, err = s.db.Exec(
		`INSERT INTO sessions (session_id, turn_count, first_prompt)
		 VALUES (?, 1, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
		   turn_count = turn_count + 1,
		   first_prompt = CASE WHEN sessions.first_prompt = '' THEN excluded.first_prompt ELSE sessions.first_prompt END`,
		sessionID, firstPrompt,
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Errorf("failed to update session row: session=%s: %v", sessionID, err)
		return err
	}
	return nil
}

// RecentSessions returns summaries of prior sessions, newest first.
func (s *SessionStore) RecentSessions(ctx context.Context, limit int) ([]SessionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, started_at, turn_count, first_prompt
		 FROM sessions
		 ORDER BY started_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		if err := rows.Scan(&sum.ID, &sum.StartedAt, &sum.TurnCount, &sum.FirstPrompt); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// SessionTurns retrieves the turns of one session in order.
func (s *SessionStore) SessionTurns(ctx context.Context, sessionID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT turn_number, role, content, created_at
		 FROM session_turns
		 WHERE session_id = ?
		 ORDER BY turn_number ASC, role DESC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var out []Turn
	for rows.Next() {
		var turn Turn
		if err := rows.Scan(&turn.Number, &turn.Role, &turn.Content, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn row: %w", err)
		}
		out = append(out, turn)
	}
	return out, rows.Err()
}

// Turn is one half of a conversation exchange.
type Turn struct {
	Number    int
	Role      string
	Content   string
	CreatedAt time.Time
}

// CountSessions returns the number of recorded sessions.
func (s *SessionStore) CountSessions(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

// Close releases the database handle.
func (s *SessionStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
