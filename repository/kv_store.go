// Package repository provides data access layer for the catalog application.
package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"anistream/database"
)

// Keys persisted by the catalog and session stores
const (
	KeyMovies     = "movies"
	KeyIsLoggedIn = "isLoggedIn"
	KeyUserRole   = "userRole"
	KeyUserName   = "userName"
	KeyUserEmail  = "userEmail"
	KeyTheme      = "theme"
)

// KeyValueStore is the durable string storage the stores persist into
type KeyValueStore interface {
	// Get returns the value for key; ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error
}

// SQLiteKeyValueStore keeps one row per key in the kv table
type SQLiteKeyValueStore struct {
	db *database.DB
}

// NewSQLiteKeyValueStore creates a key-value store backed by db
func NewSQLiteKeyValueStore(db *database.DB) *SQLiteKeyValueStore {
	return &SQLiteKeyValueStore{db: db}
}

// Get retrieves the value stored under key
func (s *SQLiteKeyValueStore) Get(key string) (string, bool, error) {
	var value string
	err := s.db.Get(&value, `SELECT value FROM kv WHERE key = ?`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get key %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value
func (s *SQLiteKeyValueStore) Set(key, value string) error {
	query := `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.Exec(query, key, value, database.FormatTime(time.Now())); err != nil {
		return fmt.Errorf("failed to set key %q: %w", key, err)
	}
	return nil
}

// Remove deletes key
func (s *SQLiteKeyValueStore) Remove(key string) error {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to remove key %q: %w", key, err)
	}
	return nil
}

// MemoryKeyValueStore is a process-local KeyValueStore
type MemoryKeyValueStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryKeyValueStore creates an empty in-memory key-value store
func NewMemoryKeyValueStore() *MemoryKeyValueStore {
	return &MemoryKeyValueStore{values: map[string]string{}}
}

// Get retrieves the value stored under key
func (m *MemoryKeyValueStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set stores value under key
func (m *MemoryKeyValueStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Remove deletes key
func (m *MemoryKeyValueStore) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Len returns the number of stored keys
func (m *MemoryKeyValueStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
