// Package storage provides a durable key-value document store backed by
// JSON files. Each key maps to one file; writes go through a temp file and
// rename so a document is always either the old or the new version, never
// a partial write.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store persists JSON documents under a directory, one file per key.
type Store struct {
	mu  sync.Mutex
	dir string
}

// Open creates a store rooted at dir, creating the directory if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// OpenDefault opens the store in the user's config directory.
func OpenDefault(appName string) (*Store, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return Open(filepath.Join(configDir, appName))
}

// Dir returns the directory backing the store.
func (s *Store) Dir() string {
	return s.dir
}

// Put serializes v as JSON and atomically replaces the document at key.
func (s *Store) Put(key string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(key)
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Get deserializes the document at key into v. Returns ok=false without
// error when no document exists, so callers can fall back to defaults.
func (s *Store) Get(key string, v interface{}) (bool, error) {
	s.mu.Lock()
	data, err := os.ReadFile(s.path(key))
	s.mu.Unlock()

	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode %q: %w", key, err)
	}
	return true, nil
}

// Delete removes the document at key. Missing documents are not an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}
