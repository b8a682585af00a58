// Package localstore provides SQLite-backed durable storage for the
// progression state. Uses WAL mode for crash-safe writes.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/prepquest/prepquest-server/internal/domain"
)

const (
	dbFileName = "progression.db"

	// The state is one JSON blob under a fixed key; the single-profile
	// model has exactly one live row.
	stateKey = "progression_state"
)

// Store persists the progression state in a local SQLite file. It implements
// progression.LocalStore.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at dir/progression.db.
// Enables WAL mode and a 5-second busy timeout.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, dbFileName)
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// SQLite is single-writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close cleanly shuts down the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS progression_state (
			key      TEXT PRIMARY KEY,
			value    TEXT NOT NULL,
			saved_at INTEGER NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Load returns the stored state, or nil when the profile has never saved.
func (s *Store) Load(ctx context.Context) (*domain.ProgressionState, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM progression_state WHERE key = ?`, stateKey,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}

	var state domain.ProgressionState
	if err := json.Unmarshal([]byte(value), &state); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &state, nil
}

// Save overwrites the stored state.
func (s *Store) Save(ctx context.Context, state domain.ProgressionState) error {
	value, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO progression_state (key, value, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, saved_at=excluded.saved_at`,
		stateKey, string(value), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}
