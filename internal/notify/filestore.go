package notify

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	entriesFile = "notifications.json"
	cursorFile  = "notified.json"
)

// FileStorage persists the journal as two JSON files under a state
// directory. Writes are atomic: the payload goes to a .tmp file first and
// then replaces the real file with a rename, so an interrupted write never
// corrupts the previous state.
type FileStorage struct {
	dir string
}

// NewFileStorage creates the state directory if needed and returns a
// storage rooted there.
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &FileStorage{dir: dir}, nil
}

// LoadEntries implements Storage.
func (f *FileStorage) LoadEntries() ([]Entry, error) {
	var entries []Entry
	if err := f.load(entriesFile, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SaveEntries implements Storage.
func (f *FileStorage) SaveEntries(entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	return f.save(entriesFile, entries)
}

// LoadCursor implements Storage.
func (f *FileStorage) LoadCursor() ([]string, error) {
	var ids []string
	if err := f.load(cursorFile, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// SaveCursor implements Storage.
func (f *FileStorage) SaveCursor(ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	return f.save(cursorFile, ids)
}

func (f *FileStorage) load(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(f.dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}

func (f *FileStorage) save(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	path := filepath.Join(f.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

var _ Storage = (*FileStorage)(nil)
