package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"common-corpus/internal/models"
)

// FileStore writes snapshots to a single state file. Save writes a temp
// file in the same directory and renames it over the previous snapshot, so
// a crash mid-write never corrupts the committed state.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the given state file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save serializes state and atomically replaces the state file.
func (s *FileStore) Save(_ context.Context, state models.RunState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// Load reads and decodes the state file.
func (s *FileStore) Load(_ context.Context) (models.RunState, bool, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.RunState{}, false, nil
		}
		return models.RunState{}, false, fmt.Errorf("read state file: %w", err)
	}
	var state models.RunState
	if err := json.Unmarshal(payload, &state); err != nil {
		return models.RunState{}, false, fmt.Errorf("decode state file: %w", err)
	}
	if state.Version != models.RunStateVersion {
		return models.RunState{}, false, fmt.Errorf("unsupported state version %d", state.Version)
	}
	return state, true, nil
}
