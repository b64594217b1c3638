// Package localstore is the durable client-side state store. It is a
// small key/value table over SQLite holding the device identifier, the
// geo session record, and the preference selection. Writes are
// last-writer-wins; the store never coordinates between processes.
package localstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/HabariMedia/newsroom-go/internal/domain/entities/content"
	"github.com/HabariMedia/newsroom-go/internal/domain/entities/geo"
	"github.com/HabariMedia/newsroom-go/internal/domain/entities/preferences"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/security"
)

const (
	keyDeviceID    = "device_id"
	keyGeoSession  = "geo_session"
	keyPreferences = "preferences"
	keyVisits      = "category_visits"
	keyCategories  = "categories"
)

const schema = `
CREATE TABLE IF NOT EXISTS local_state (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);
`

// Store wraps the SQLite file holding all persisted engine state.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (or creates) the state database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create state schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get reads a raw value. Missing keys return ("", false, nil).
func (s *Store) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM local_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read state key %s: %w", key, err)
	}
	return value, true, nil
}

// Set writes a raw value, replacing any previous one.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO local_state (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to write state key %s: %w", key, err)
	}
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM local_state WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete state key %s: %w", key, err)
	}
	return nil
}

// DeviceID returns the stable per-install identifier, generating and
// persisting a ULID on first use.
func (s *Store) DeviceID() (string, error) {
	id, found, err := s.Get(keyDeviceID)
	if err != nil {
		return "", err
	}
	if found && id != "" {
		return id, nil
	}

	id = security.GenerateULID()
	if err := s.Set(keyDeviceID, id); err != nil {
		return "", err
	}
	return id, nil
}

// LoadGeoSession reads the persisted geo session, or (nil, nil) when none
// has been stored yet.
func (s *Store) LoadGeoSession() (*geo.Session, error) {
	raw, found, err := s.Get(keyGeoSession)
	if err != nil || !found {
		return nil, err
	}

	var sess geo.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("failed to decode stored geo session: %w", err)
	}
	return &sess, nil
}

// SaveGeoSession persists the geo session record.
func (s *Store) SaveGeoSession(sess *geo.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode geo session: %w", err)
	}
	return s.Set(keyGeoSession, string(raw))
}

// LoadPreferences reads the persisted preference state, returning an empty
// state when nothing has been stored yet.
func (s *Store) LoadPreferences() (preferences.State, error) {
	raw, found, err := s.Get(keyPreferences)
	if err != nil {
		return preferences.State{}, err
	}
	if !found {
		return preferences.State{SelectedCategoryIDs: []string{}}, nil
	}

	var state preferences.State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return preferences.State{}, fmt.Errorf("failed to decode stored preferences: %w", err)
	}
	if state.SelectedCategoryIDs == nil {
		state.SelectedCategoryIDs = []string{}
	}
	return state, nil
}

// SavePreferences persists the preference state.
func (s *Store) SavePreferences(state preferences.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	return s.Set(keyPreferences, string(raw))
}

// LoadVisits reads the per-category visit counts, returning an empty map
// when nothing has been stored yet.
func (s *Store) LoadVisits() (map[string]int, error) {
	raw, found, err := s.Get(keyVisits)
	if err != nil {
		return nil, err
	}
	if !found {
		return map[string]int{}, nil
	}

	visits := map[string]int{}
	if err := json.Unmarshal([]byte(raw), &visits); err != nil {
		return nil, fmt.Errorf("failed to decode stored visit counts: %w", err)
	}
	return visits, nil
}

// SaveVisits persists the per-category visit counts.
func (s *Store) SaveVisits(visits map[string]int) error {
	raw, err := json.Marshal(visits)
	if err != nil {
		return fmt.Errorf("failed to encode visit counts: %w", err)
	}
	return s.Set(keyVisits, string(raw))
}

// LoadCategories reads the cached category reference data, or nil when
// no refresh has succeeded yet.
func (s *Store) LoadCategories() ([]content.Category, error) {
	raw, found, err := s.Get(keyCategories)
	if err != nil || !found {
		return nil, err
	}

	var categories []content.Category
	if err := json.Unmarshal([]byte(raw), &categories); err != nil {
		return nil, fmt.Errorf("failed to decode cached categories: %w", err)
	}
	return categories, nil
}

// SaveCategories persists the category reference data for offline use.
func (s *Store) SaveCategories(categories []content.Category) error {
	raw, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("failed to encode categories: %w", err)
	}
	return s.Set(keyCategories, string(raw))
}
