// Package storage provides SQLite-backed persistence for the serialized
// announcer state. The state is a single opaque blob: storage round-trips it
// and knows nothing about its layout.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// stateKey names the single row holding the announcer blob.
const stateKey = "announcer"

// Store wraps a SQLite database holding the serialized core state.
type Store struct {
	db *sql.DB
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/tickersentry/data.db.
func New(dbPath string) (*Store, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "tickersentry", "data.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS state_blobs (
		name     TEXT PRIMARY KEY,
		blob     BLOB NOT NULL,
		saved_at INTEGER NOT NULL
	)`)
	return err
}

// Save overwrites the stored state blob.
func (s *Store) Save(blob []byte) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO state_blobs (name, blob, saved_at) VALUES (?,?,?)`,
		stateKey, blob, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save state blob: %w", err)
	}
	return nil
}

// Load returns the stored state blob, or nil when none has been saved yet.
func (s *Store) Load() ([]byte, error) {
	var blob []byte
	err := s.db.QueryRow(`SELECT blob FROM state_blobs WHERE name = ?`, stateKey).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state blob: %w", err)
	}
	return blob, nil
}

// SavedAt returns when the stored blob was written, or the zero time when no
// blob exists.
func (s *Store) SavedAt() (time.Time, error) {
	var nanos int64
	err := s.db.QueryRow(`SELECT saved_at FROM state_blobs WHERE name = ?`, stateKey).Scan(&nanos)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read save time: %w", err)
	}
	return time.Unix(0, nanos), nil
}
