// Package store is the durable local state of the client: reporter
// identity, access token, and the record of interventions already rated.
// Backed by a single SQLite file so state survives across sessions.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Well-known keys.
const (
	KeyReporterPhone = "reporter_phone"
	KeyReporterName  = "reporter_name"
	KeyAccessToken   = "access_token"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS rated_interventions (
	intervention_id TEXT PRIMARY KEY,
	rated_at        TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

type Store struct {
	db *sql.DB
}

// Open creates or opens the client database at path, ensuring the parent
// directory and schema exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value for key, or "" when unset.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// SaveReporter stores the reporter identity used to reopen tracking
// without re-authentication.
func (s *Store) SaveReporter(ctx context.Context, phone, name string) error {
	if err := s.Set(ctx, KeyReporterPhone, phone); err != nil {
		return err
	}
	return s.Set(ctx, KeyReporterName, name)
}

func (s *Store) ReporterPhone(ctx context.Context) (string, error) {
	return s.Get(ctx, KeyReporterPhone)
}

// MarkRated records durably that an intervention was rated, so a later
// session does not prompt again.
func (s *Store) MarkRated(ctx context.Context, interventionID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO rated_interventions (intervention_id) VALUES (?) ON CONFLICT(intervention_id) DO NOTHING",
		interventionID,
	)
	if err != nil {
		return fmt.Errorf("failed to record rating: %w", err)
	}
	return nil
}

func (s *Store) HasRated(ctx context.Context, interventionID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM rated_interventions WHERE intervention_id = ?", interventionID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read rating record: %w", err)
	}
	return true, nil
}
