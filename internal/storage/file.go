package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileStore keeps one <key>.json file per key under a directory. It is
// the browser-local-storage analog: synchronous writes, last write wins,
// no locking across processes.
type FileStore struct {
	dir    string
	logger *slog.Logger
	mu     sync.RWMutex
}

// NewFileStore creates the directory if needed and returns a store over it.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &FileStore{dir: dir, logger: pickLogger(logger)}, nil
}

func (s *FileStore) path(key string) string {
	// Keys never leave the store's directory.
	safe := strings.ReplaceAll(key, "/", "_")
	safe = strings.ReplaceAll(safe, "\\", "_")
	safe = strings.ReplaceAll(safe, "..", "_")
	return filepath.Join(s.dir, filepath.Base(safe)+".json")
}

func (s *FileStore) Get(key string, out any) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read key %q: %w", key, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		// A corrupted record is treated the same as a missing one.
		s.logger.Warn("discarding unreadable record", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

func (s *FileStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode key %q: %w", key, err)
	}
	if err := os.WriteFile(s.path(key), data, 0644); err != nil {
		return fmt.Errorf("%w: write key %q: %v", ErrPersistenceUnavailable, key, err)
	}
	return nil
}

func (s *FileStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove key %q: %v", ErrPersistenceUnavailable, key, err)
	}
	return nil
}

func (s *FileStore) Keys(prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("scan storage directory: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		key := strings.TrimSuffix(name, ".json")
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
