// Package authstate persists the local "is logged in" flag. Sign-up,
// sign-in and password flows belong to the external identity provider;
// the only thing kept on this side is whether a user is currently signed in.
package authstate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// loggedInKey is the single key this store manages.
const loggedInKey = "isLoggedIn"

// Store is a small SQLite-backed key/value store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at dir/state.db.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "state.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state table: %w", err)
	}

	return &Store{db: db}, nil
}

// IsLoggedIn reports the stored flag. A missing key means logged out.
func (s *Store) IsLoggedIn(ctx context.Context) (bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, loggedInKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading login flag: %w", err)
	}
	return v == "true", nil
}

// SetLoggedIn stores the flag.
func (s *Store) SetLoggedIn(ctx context.Context, loggedIn bool) error {
	v := "false"
	if loggedIn {
		v = "true"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`,
		loggedInKey, v,
	)
	if err != nil {
		return fmt.Errorf("writing login flag: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
