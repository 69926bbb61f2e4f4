// Package catalog implements the user-scoped autofill catalogs: device
// types, brands, model series, models, and repair issues. Every catalog is
// persisted through a flat string key-value store under keys prefixed with
// the owning username, so accounts sharing one installation never see each
// other's entries.
package catalog

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
)

// Storage is the synchronous key-value contract the catalogs are built on:
// string keys, string values, whole-value reads and writes.
type Storage interface {
	// Get returns the value stored under key, and whether it exists.
	Get(key string) (string, bool)
	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
	// Delete removes key outright. Deleting a missing key is a no-op.
	Delete(key string) error
	// Keys returns all stored keys.
	Keys() []string
}

// MemStorage is an in-memory Storage, used by tests and dry runs.
type MemStorage struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewMemStorage creates an empty in-memory store.
func NewMemStorage() *MemStorage {
	return &MemStorage{entries: make(map[string]string)}
}

func (m *MemStorage) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	return v, ok
}

func (m *MemStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *MemStorage) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *MemStorage) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	return keys
}

// FileStorage is a Storage backed by a single JSON file holding a flat
// map of key to value. Every mutation rewrites the whole file atomically
// (write to .tmp, then rename). There is no cross-process coordination: two
// processes sharing one file race last-write-wins, which is an accepted
// limitation of this layer.
type FileStorage struct {
	path    string
	mu      sync.Mutex
	entries map[string]string
}

// NewFileStorage opens (or initializes) the key-value file at path.
// A missing file starts an empty store. A file that cannot be parsed is
// logged and treated as empty rather than failing startup; the catalogs
// prefer availability over strictness.
func NewFileStorage(path string) (*FileStorage, error) {
	fs := &FileStorage{
		path:    path,
		entries: make(map[string]string),
	}

	fileData, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("INFO: Catalog file '%s' not found. Initializing empty catalog store.", path)
			return fs, nil
		}
		return nil, fmt.Errorf("failed to read catalog file '%s': %w", path, err)
	}

	if err := json.Unmarshal(fileData, &fs.entries); err != nil {
		log.Printf("ERROR: Failed to parse catalog file '%s': %v. Starting with an empty catalog store.", path, err)
		fs.entries = make(map[string]string)
	}

	return fs, nil
}

func (f *FileStorage) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.entries[key]
	return v, ok
}

func (f *FileStorage) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = value
	return f.persistLocked()
}

func (f *FileStorage) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.entries[key]; !ok {
		return nil
	}
	delete(f.entries, key)
	return f.persistLocked()
}

func (f *FileStorage) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.entries))
	for k := range f.entries {
		keys = append(keys, k)
	}
	return keys
}

// persistLocked writes the entry map to disk. Caller must hold f.mu.
func (f *FileStorage) persistLocked() error {
	jsonData, err := json.MarshalIndent(f.entries, "", "  ")
	if err != nil {
		log.Printf("ERROR: Failed to marshal catalog store: %v", err)
		return err
	}

	tempPath := f.path + ".tmp"
	if err := os.WriteFile(tempPath, jsonData, 0644); err != nil {
		log.Printf("ERROR: Failed to write temporary catalog file '%s': %v", tempPath, err)
		return err
	}
	if err := os.Rename(tempPath, f.path); err != nil {
		log.Printf("ERROR: Failed to rename temporary catalog file '%s' to '%s': %v", tempPath, f.path, err)
		_ = os.Remove(tempPath)
		return err
	}
	return nil
}
