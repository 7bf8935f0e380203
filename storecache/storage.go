package storecache

import (
	"context"
	"sort"

	"github.com/Davincible/rx-utils/safemap"
)

// Storage is a persistent string keyed store, the role played by a browser's
// localStorage. Implementations must be safe for concurrent use. Concurrent
// writers to the same key race and the last write wins.
type Storage interface {
	// Keys lists every stored key.
	Keys(ctx context.Context) ([]string, error)
	// GetItem returns the stored value and whether the key exists.
	GetItem(ctx context.Context, key string) (string, bool, error)
	// SetItem stores val under key, replacing any previous value.
	SetItem(ctx context.Context, key, val string) error
	// RemoveItem deletes key. Removing a missing key is not an error.
	RemoveItem(ctx context.Context, key string) error
}

// MemoryStorage is an in-process Storage. It does not outlive the process.
type MemoryStorage struct {
	items safemap.Map[string, string]
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: safemap.New[string, string]()}
}

func (s *MemoryStorage) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	keys := s.items.Keys()
	sort.Strings(keys)

	return keys, nil
}

func (s *MemoryStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	val, ok := s.items.Get(key)

	return val, ok, nil
}

func (s *MemoryStorage) SetItem(ctx context.Context, key, val string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.items.Set(key, val)

	return nil
}

func (s *MemoryStorage) RemoveItem(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.items.Delete(key)

	return nil
}

// Len returns the number of stored keys.
func (s *MemoryStorage) Len() int {
	return s.items.Len()
}

var _ Storage = (*MemoryStorage)(nil)
