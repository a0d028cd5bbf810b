// Package session persists the operator's credential and a display-only
// copy of the profile across station restarts. It replaces the ambient
// browser-storage lookups of the web client with an explicit store handed
// down to each page.
package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"symposium/internal/model"
)

// Store is a single-operator session store backed by sqlite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the store at path. ":memory:" works for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createTables() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS session (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	)`)
	return err
}

func (s *Store) get(key string) (string, time.Time, error) {
	row := s.db.QueryRow(`SELECT value, updated_at FROM session WHERE key = ?`, key)
	var value string
	var at time.Time
	if err := row.Scan(&value, &at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", time.Time{}, nil
		}
		return "", time.Time{}, err
	}
	return value, at, nil
}

func (s *Store) put(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO session (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	return err
}

func (s *Store) delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM session WHERE key = ?`, key)
	return err
}

// Token returns the stored credential, empty when logged out.
func (s *Store) Token() (string, error) {
	tok, _, err := s.get("token")
	return tok, err
}

// SetToken stores a fresh credential after login.
func (s *Store) SetToken(token string) error {
	if token == "" {
		return errors.New("token required")
	}
	return s.put("token", token)
}

// ClearToken removes the credential only. Called on a 401; never called for
// transport failures.
func (s *Store) ClearToken() error {
	return s.delete("token")
}

// SetCachedProfile stores a copy of the profile for display fallback while
// the backend is unreachable. It is never an authorization input.
func (s *Store) SetCachedProfile(p model.UserProfile) error {
	buf, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.put("profile", string(buf))
}

// CachedProfile returns the cached profile and when it was stored, or nil
// when nothing is cached.
func (s *Store) CachedProfile() (*model.UserProfile, time.Time, error) {
	raw, at, err := s.get("profile")
	if err != nil || raw == "" {
		return nil, time.Time{}, err
	}
	var p model.UserProfile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, time.Time{}, fmt.Errorf("corrupt cached profile: %w", err)
	}
	return &p, at, nil
}

// Invalidate drops the credential and the cached profile together, the
// logout path.
func (s *Store) Invalidate() error {
	if err := s.delete("token"); err != nil {
		return err
	}
	return s.delete("profile")
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
