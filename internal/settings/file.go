package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists the snapshot as a single JSON document. Writes go to
// a temp file in the same directory followed by a rename, so a crash
// mid-write never leaves a torn document behind.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore writing to the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the persisted document. Returns fs.ErrNotExist (wrapped) when
// no document exists yet.
func (f *FileStore) Load() ([]byte, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return raw, nil
}

// Save writes the snapshot atomically.
func (f *FileStore) Save(s Settings) error {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("save settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save settings: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
