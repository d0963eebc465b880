// Package prefs is a small persistent key-value preference store backed by
// SQLite. Values are stored as JSON. Registered defaults are returned for
// keys that were never written.
package prefs

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get when a key has neither a value nor a default.
var ErrNotFound = errors.New("preference not found")

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS preferences (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS schema_info (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// Store holds user preferences.
type Store struct {
	conn *sql.DB
	path string

	mu       sync.RWMutex
	defaults map[string]json.RawMessage
}

// Open opens or creates the preference database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create prefs dir: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open prefs: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create prefs schema: %w", err)
	}
	if _, err := conn.Exec(`INSERT OR IGNORE INTO schema_info (key, value) VALUES ('version', ?)`,
		fmt.Sprintf("%d", schemaVersion)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set prefs version: %w", err)
	}

	return &Store{conn: conn, path: path, defaults: map[string]json.RawMessage{}}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Register sets default values returned for keys that have not been set.
// Existing stored values are left alone.
func (s *Store) Register(defaults map[string]any) error {
	encoded := make(map[string]json.RawMessage, len(defaults))
	for k, v := range defaults {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode default %q: %w", k, err)
		}
		encoded[k] = data
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range encoded {
		s.defaults[k] = v
	}
	return nil
}

// Raw returns the stored JSON for key, falling back to the registered
// default.
func (s *Store) Raw(key string) (json.RawMessage, error) {
	var value string
	err := s.conn.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if err == nil {
		return json.RawMessage(value), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}

	s.mu.RLock()
	def, ok := s.defaults[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return def, nil
}

// Get decodes the value of key into out.
func (s *Store) Get(key string, out any) error {
	raw, err := s.Raw(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %q: %w", key, err)
	}
	return nil
}

// Set stores value under key.
func (s *Store) Set(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return s.SetRaw(key, data)
}

// SetRaw stores pre-encoded JSON under key without validating it.
func (s *Store) SetRaw(key string, data []byte) error {
	_, err := s.conn.Exec(`INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`, key, string(data))
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Delete removes the stored value for key. The default, if any, applies
// again afterwards.
func (s *Store) Delete(key string) error {
	if _, err := s.conn.Exec(`DELETE FROM preferences WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Keys lists the keys with stored values, sorted.
func (s *Store) Keys() ([]string, error) {
	rows, err := s.conn.Query(`SELECT key FROM preferences ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
