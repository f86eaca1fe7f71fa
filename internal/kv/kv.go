// Package kv is the small durable store behind pins and user preferences.
// It uses the pure-Go sqlite driver so the daemon builds without cgo.
package kv

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store is a tiny key-value + pin-set store backed by a single sqlite file.
// Losing it is never fatal: in-memory state stays authoritative for the
// running process and writes are retried on the next mutation.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the store at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", path, err)
	}

	schema := `
CREATE TABLE IF NOT EXISTS pins (
	path TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize store schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadPins returns every persisted pin path.
func (s *Store) LoadPins() ([]string, error) {
	rows, err := s.db.Query(`SELECT path FROM pins ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("failed to load pins: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan pin: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// AddPin persists a pin path. Inserting an existing path is a no-op.
func (s *Store) AddPin(path string) error {
	if _, err := s.db.Exec(`INSERT OR IGNORE INTO pins (path) VALUES (?)`, path); err != nil {
		return fmt.Errorf("failed to persist pin %s: %w", path, err)
	}
	return nil
}

// RemovePin deletes a pin path. Removing an absent path is a no-op.
func (s *Store) RemovePin(path string) error {
	if _, err := s.db.Exec(`DELETE FROM pins WHERE path = ?`, path); err != nil {
		return fmt.Errorf("failed to remove pin %s: %w", path, err)
	}
	return nil
}

// ClearPins deletes all pin paths.
func (s *Store) ClearPins() error {
	if _, err := s.db.Exec(`DELETE FROM pins`); err != nil {
		return fmt.Errorf("failed to clear pins: %w", err)
	}
	return nil
}

// Get reads a settings value. The second return is false if the key is absent.
func (s *Store) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, true, nil
}

// Set writes a settings value, replacing any previous one.
func (s *Store) Set(key, value string) error {
	if _, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}
