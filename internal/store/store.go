// Package store provides path-addressed persistence for analysis artifacts.
//
// Extracted heat sources, directed masks and rendered heat rasters are cached
// between runs so that an analysis can be resumed without recomputing work that
// already exists. Components never touch the filesystem directly; they receive a
// Store and address artifacts by slash-separated keys such as
// "directed-masks/p01/3.dmask".
//
// Two implementations are provided:
//   - FileStore persists artifacts below a root directory.
//   - MemoryStore keeps artifacts in memory and is intended for tests.
//
// Both implementations are safe for concurrent use.
package store

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound is returned by Load when no artifact exists for a key.
var ErrNotFound = errors.New("artifact not found")

// Store persists opaque artifact bytes under slash-separated keys.
type Store interface {
	// Load returns the artifact stored under key, or an error wrapping
	// ErrNotFound if there is none.
	Load(key string) ([]byte, error)

	// Save stores data under key, replacing any existing artifact.
	Save(key string, data []byte) error

	// Exists reports whether an artifact is stored under key.
	Exists(key string) bool
}

// cleanKey normalizes a key and rejects keys that would escape the store root.
func cleanKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty artifact key")
	}
	cleaned := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("invalid artifact key %q", key)
	}
	return cleaned, nil
}

// FileStore persists artifacts as files below a root directory.
//
// Writes go to a temporary file in the destination directory which is then
// renamed into place, so a crash never leaves a half-written artifact behind.
type FileStore struct {
	root string
	mu   sync.Mutex
}

// NewFileStore creates a FileStore rooted at dir. The directory is created if
// it does not already exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{root: dir}, nil
}

// Root returns the directory the store writes to.
func (s *FileStore) Root() string {
	return s.root
}

// Path returns the filesystem path an artifact key maps to.
func (s *FileStore) Path(key string) (string, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(cleaned)), nil
}

// Load reads the artifact stored under key.
func (s *FileStore) Load(key string) ([]byte, error) {
	p, err := s.Path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read artifact %s: %w", key, err)
	}
	return data, nil
}

// Save writes data under key atomically.
func (s *FileStore) Save(key string, data []byte) error {
	p, err := s.Path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := WriteFileAtomic(p, data); err != nil {
		return fmt.Errorf("failed to save artifact %s: %w", key, err)
	}
	return nil
}

// WriteFileAtomic writes data to a temporary file next to p and renames it
// into place, creating parent directories as needed. Readers never observe a
// partially written file.
func WriteFileAtomic(p string, data []byte) error {
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", p, err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", p, err)
	}
	return nil
}

// Exists reports whether a file exists for key.
func (s *FileStore) Exists(key string) bool {
	p, err := s.Path(key)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

// MemoryStore keeps artifacts in memory.
//
// Stored slices are copied on Save and Load so callers can never mutate an
// artifact in place.
type MemoryStore struct {
	mu        sync.RWMutex
	artifacts map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		artifacts: make(map[string][]byte),
	}
}

// Load returns a copy of the artifact stored under key.
func (s *MemoryStore) Load(key string) ([]byte, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	data, ok := s.artifacts[cleaned]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Save stores a copy of data under key.
func (s *MemoryStore) Save(key string, data []byte) error {
	cleaned, err := cleanKey(key)
	if err != nil {
		return err
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	s.mu.Lock()
	s.artifacts[cleaned] = stored
	s.mu.Unlock()
	return nil
}

// Exists reports whether an artifact is stored under key.
func (s *MemoryStore) Exists(key string) bool {
	cleaned, err := cleanKey(key)
	if err != nil {
		return false
	}
	s.mu.RLock()
	_, ok := s.artifacts[cleaned]
	s.mu.RUnlock()
	return ok
}

// Keys returns all stored keys in sorted order.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.artifacts))
	for k := range s.artifacts {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys
}
