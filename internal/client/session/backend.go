package session

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Backend is persisted key/value storage holding the session entries.
type Backend interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// FileBackend keeps one file per key under Dir, readable by the owner only.
type FileBackend struct {
	Dir string
}

func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{Dir: dir}
}

// Path returns the file backing key.
func (b *FileBackend) Path(key string) string {
	return filepath.Join(b.Dir, key)
}

func (b *FileBackend) Get(key string) (string, bool, error) {
	data, err := os.ReadFile(b.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	v := strings.TrimSpace(string(data))
	if v == "" {
		return "", false, nil
	}
	return v, true, nil
}

func (b *FileBackend) Set(key, value string) error {
	if err := os.MkdirAll(b.Dir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(b.Path(key), []byte(value), 0o600)
}

func (b *FileBackend) Delete(key string) error {
	err := os.Remove(b.Path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// MemoryBackend is an in-process Backend.
type MemoryBackend struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: map[string]string{}}
}

func (b *MemoryBackend) Get(key string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.values[key]
	return v, ok, nil
}

func (b *MemoryBackend) Set(key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = value
	return nil
}

func (b *MemoryBackend) Delete(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.values, key)
	return nil
}
