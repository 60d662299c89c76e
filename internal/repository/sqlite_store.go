package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// SQLiteStore is the counter store for local and self-hosted deployments.
// Same contract as the DynamoDB Client: Set buffers, Commit flushes in one
// transaction.
type SQLiteStore struct {
	db *sql.DB

	mu      sync.Mutex
	pending map[string]int
}

// OpenSQLite opens (creating if needed) the counter database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("repository: sqlite path must not be empty")
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("repository: open sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("repository: init schema: %w", err)
	}

	slog.Info("counter database opened", "path", path)
	return &SQLiteStore{db: db, pending: make(map[string]int)}, nil
}

// Get returns the persisted turn count for a conversation, 0 when absent.
func (s *SQLiteStore) Get(ctx context.Context, conversationID string) (int, error) {
	var turns int
	err := s.db.QueryRowContext(ctx,
		"SELECT turns FROM conversation_counters WHERE conversation_id = ?",
		conversationID,
	).Scan(&turns)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("repository: Get: %w", err)
	}
	return turns, nil
}

// Set buffers the new counter value until Commit.
func (s *SQLiteStore) Set(_ context.Context, conversationID string, turns int) error {
	if conversationID == "" {
		return errors.New("repository: Set: conversation id is required")
	}
	s.mu.Lock()
	s.pending[conversationID] = turns
	s.mu.Unlock()
	return nil
}

// Commit upserts all buffered counters in one transaction and clears the
// buffer.
func (s *SQLiteStore) Commit(ctx context.Context) error {
	s.mu.Lock()
	pending := s.pending
	s.pending = make(map[string]int)
	s.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("repository: Commit begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for conversationID, turns := range pending {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO conversation_counters (conversation_id, turns, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(conversation_id) DO UPDATE SET turns = excluded.turns, updated_at = excluded.updated_at
		`, conversationID, turns, now); err != nil {
			return fmt.Errorf("repository: Commit upsert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("repository: Commit: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
