// Package localstore is the durable string-keyed fallback store, the
// server-side analogue of the browser's localStorage. It does pure
// serialization; no business logic lives here.
package localstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Blob keys. Versioned so a future format change can pick a fresh key.
const (
	QuestionsKey = "quiz_questions_v1"
	ResultsKey   = "quiz_results_v1"
)

// Store persists opaque string blobs in a local SQLite file.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open creates or opens the store at path and ensures its schema.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS blobs (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init local store: %w", err)
	}
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "local_store").Logger(),
	}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Put writes a blob under key, replacing any previous value.
func (s *Store) Put(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO blobs (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Get reads a blob. The bool reports presence; read failures degrade to
// absent rather than erroring.
func (s *Store) Get(key string) (string, bool) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM blobs WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("local read failed")
		return "", false
	}
	return value, true
}

// SaveJSON marshals v and stores it under key.
func (s *Store) SaveJSON(key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Put(key, string(payload))
}

// LoadJSON unmarshals the blob under key into dst. Absent or malformed data
// degrades to false, never an error.
func (s *Store) LoadJSON(key string, dst any) bool {
	raw, ok := s.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("discarding malformed local blob")
		return false
	}
	return true
}
