package keystore

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// ErrKeyNotFound is returned by backends for absent keys. The service maps it
// to walleterrors.ErrNoWalletFound where the wallet record is concerned.
var ErrKeyNotFound = errors.New("key not found")

// Backend is the minimal KV surface the keystore persists through.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// FileBackend stores each key as one JSON file inside a private directory.
type FileBackend struct {
	dir string
}

// NewFileBackend ensures the directory exists with owner-only permissions.
func NewFileBackend(dir string) (*FileBackend, error) {
	//nolint:mnd // 0700: secrets directory is owner-only
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "failed to create keystore directory %q", dir)
	}

	return &FileBackend{dir: dir}, nil
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.dir, key+".json")
}

func (b *FileBackend) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(b.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrKeyNotFound
		}
		return nil, errors.Wrapf(err, "failed to read %q", key)
	}

	return data, nil
}

func (b *FileBackend) Set(_ context.Context, key string, value []byte) error {
	//nolint:mnd // 0600: record files are owner-only
	if err := os.WriteFile(b.path(key), value, 0o600); err != nil {
		return errors.Wrapf(err, "failed to write %q", key)
	}

	return nil
}

func (b *FileBackend) Delete(_ context.Context, key string) error {
	if err := os.Remove(b.path(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to delete %q", key)
	}

	return nil
}

func (b *FileBackend) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(b.path(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}

	return false, errors.Wrapf(err, "failed to stat %q", key)
}

// MemoryBackend keeps records in a map. Used for tests and ephemeral engines.
type MemoryBackend struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		records: make(map[string][]byte),
	}
}

func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, ok := b.records[key]
	if !ok {
		return nil, ErrKeyNotFound
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (b *MemoryBackend) Set(_ context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	data := make([]byte, len(value))
	copy(data, value)
	b.records[key] = data

	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.records, key)
	return nil
}

func (b *MemoryBackend) Exists(_ context.Context, key string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, ok := b.records[key]
	return ok, nil
}
