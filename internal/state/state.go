// Package state persists host-side state between runs. Only the last opened
// file is kept; the reading position always starts at the beginning.
package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

const stateFileName = "state.json"

// State is the persisted host state.
type State struct {
	LastFile string `json:"last_file,omitempty"`
}

// StateStore manages persistent host state
type StateStore struct {
	path string
	data State
	mu   sync.RWMutex
}

// NewStateStore creates or loads state from XDG_STATE_HOME/moyu/
func NewStateStore() (*StateStore, error) {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	store := &StateStore{
		path: filepath.Join(dir, stateFileName),
	}
	if err := store.load(); err != nil {
		// Non-fatal - start with empty state
		store.data = State{}
	}
	return store, nil
}

// Dir returns XDG_STATE_HOME/moyu or ~/.local/state/moyu
func Dir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "moyu")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "moyu")
}

// LastFile returns the last opened file, or "" if none was saved or the
// file no longer exists.
func (s *StateStore) LastFile() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data.LastFile == "" {
		return ""
	}
	if _, err := os.Stat(s.data.LastFile); err != nil {
		return ""
	}
	return s.data.LastFile
}

// SetLastFile records path as the last opened file.
func (s *StateStore) SetLastFile(path string) error {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.LastFile = path
	return s.save()
}

// Clear forgets all saved state.
func (s *StateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = State{}
	return s.save()
}

func (s *StateStore) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &s.data)
}

func (s *StateStore) save() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}
