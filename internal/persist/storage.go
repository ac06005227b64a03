// Package persist implements the local persistence adapter: versioned
// snapshots written to a string key/value storage area.
package persist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/alexanderramin/takeoff/internal/repository"
)

// Storage is a flat string key/value area. GetItem reports absence with
// ok=false rather than an error.
type Storage interface {
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// MemoryStorage keeps items in process memory.
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

func (m *MemoryStorage) GetItem(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *MemoryStorage) SetItem(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *MemoryStorage) RemoveItem(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

// Keys returns the stored keys in lexical order.
func (m *MemoryStorage) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var validKey = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// FileStorage stores each item as <dir>/<key>.json. Writes go through a temp
// file and rename so a crash never leaves a half-written item.
type FileStorage struct {
	dir string
}

func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{dir: dir}
}

func (f *FileStorage) path(key string) (string, error) {
	if !validKey.MatchString(key) || strings.Trim(key, ".") == "" {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(f.dir, key+".json"), nil
}

func (f *FileStorage) GetItem(_ context.Context, key string) (string, bool, error) {
	p, err := f.path(key)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return string(data), true, nil
}

func (f *FileStorage) SetItem(_ context.Context, key, value string) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(p, []byte(value)); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (f *FileStorage) RemoveItem(_ context.Context, key string) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".takeoff-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// SQLiteStorage stores items in the local_storage table.
type SQLiteStorage struct {
	repo repository.KVRepo
}

func NewSQLiteStorage(repo repository.KVRepo) *SQLiteStorage {
	return &SQLiteStorage{repo: repo}
}

func (s *SQLiteStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	v, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}

func (s *SQLiteStorage) SetItem(ctx context.Context, key, value string) error {
	return s.repo.Set(ctx, key, value)
}

func (s *SQLiteStorage) RemoveItem(ctx context.Context, key string) error {
	return s.repo.Delete(ctx, key)
}
