// Package dashclient is the headless counterpart of the browser dashboard:
// it owns the persistent session identity, a single shared state container,
// the live-update stream reconciler and the analyze round trip. Presentation
// layers (CLI, TUI, embedded web view) only read snapshots and call the
// mutation operations exposed here.
package dashclient

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"agri-advisor/pkg/agro"

	"github.com/google/uuid"
)

// Storage keys, mirroring the browser build's localStorage layout.
const (
	storageKeySessionID = "agri_session_id"
	storageKeyUnits     = "agri_units"
)

// SessionStore is durable client storage: a small JSON file holding the
// session id and unit preference. Everything else is tab-lifetime state.
type SessionStore struct {
	path string

	mu     sync.Mutex
	values map[string]string
}

// OpenSessionStore loads (or initializes) the store at path. A missing file
// is not an error; it simply means a fresh install.
func OpenSessionStore(path string) (*SessionStore, error) {
	s := &SessionStore{
		path:   path,
		values: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read session store: %w", err)
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		// A corrupt store is treated as empty: the session id is replaceable
		// by design, and refusing to start would strand the user.
		s.values = make(map[string]string)
	}
	return s, nil
}

// GetOrCreateSessionID returns the persisted session id, generating and
// persisting a fresh one when absent or empty.
func (s *SessionStore) GetOrCreateSessionID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id := s.values[storageKeySessionID]; id != "" {
		return id, nil
	}

	id := newSessionID()
	s.values[storageKeySessionID] = id
	if err := s.saveLocked(); err != nil {
		return "", err
	}
	return id, nil
}

// Reset replaces the session id in memory and on disk. Callers observe
// either the old id or the new one, never an intermediate state.
func (s *SessionStore) Reset() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := newSessionID()
	s.values[storageKeySessionID] = id
	if err := s.saveLocked(); err != nil {
		return "", err
	}
	return id, nil
}

// Units returns the persisted unit preference, defaulting to metric.
func (s *SessionStore) Units() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u := s.values[storageKeyUnits]; u == UnitsImperial {
		return UnitsImperial
	}
	return UnitsMetric
}

func (s *SessionStore) SetUnits(units string) error {
	if !agro.ValidUnits(units) {
		return fmt.Errorf("unknown unit system %q", units)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[storageKeyUnits] = units
	return s.saveLocked()
}

// saveLocked persists atomically via rename so a crash mid-write can never
// leave a truncated store.
func (s *SessionStore) saveLocked() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session store: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// newSessionID produces a UUIDv4. If the secure random source fails, it
// degrades to a wall-clock id with a pseudo-random suffix: still unique
// enough to key a session, explicitly not a security boundary.
func newSessionID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return fmt.Sprintf("fallback-%d-%06d", time.Now().UnixNano(), rand.Intn(1000000))
	}
	return id.String()
}
