package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// SavedState is what one invocation leaves for the next
type SavedState struct {
	Session        string    `yaml:"session,omitempty"`
	Server         string    `yaml:"server,omitempty"`
	SelectedAssets []string  `yaml:"selected_assets,omitempty"`
	UpdatedAt      time.Time `yaml:"updated_at"`
}

// StateStore persists the selected session between CLI invocations
type StateStore struct {
	path string
}

// NewStateStore creates a store backed by path
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Path returns the state file path
func (s *StateStore) Path() string {
	return s.path
}

// Load reads the saved state. A missing file is an empty state.
func (s *StateStore) Load() (SavedState, error) {
	var st SavedState
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return st, err
	}
	if err := yaml.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return st, nil
}

// Save writes st, stamping UpdatedAt. The file is replaced by rename so a
// watcher never sees a partial write.
func (s *StateStore) Save(st SavedState) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	st.UpdatedAt = time.Now().UTC()
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Update loads, modifies and saves the state
func (s *StateStore) Update(fn func(*SavedState)) error {
	st, err := s.Load()
	if err != nil {
		return err
	}
	fn(&st)
	return s.Save(st)
}

// Clear removes the state file
func (s *StateStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
