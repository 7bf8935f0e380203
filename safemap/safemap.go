// Package safemap provides a concurrency safe generic map.
package safemap

import (
	"sync"
)

// Map is a thread-safe map with comparable keys and generic values.
// The zero value is not usable, create one with New.
type Map[K comparable, V any] struct {
	mu    *sync.RWMutex
	items map[K]V
}

// New creates and returns a new empty Map.
func New[K comparable, V any]() Map[K, V] {
	return Map[K, V]{
		items: make(map[K]V),
		mu:    new(sync.RWMutex),
	}
}

// Get retrieves the value associated with the given key from the map.
// It returns the value and a boolean indicating whether the key was present.
func (m Map[K, V]) Get(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	val, ok := m.items[key]

	return val, ok
}

// GetOrSet returns the existing value for key if present.
// Otherwise it stores val and returns it. The boolean reports whether the
// value was already present.
func (m Map[K, V]) GetOrSet(key K, val V) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.items[key]; ok {
		return existing, true
	}

	m.items[key] = val

	return val, false
}

// Set stores the value associated with the given key in the map.
func (m Map[K, V]) Set(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = value
}

// Delete removes the value associated with the given key from the map.
// It reports whether the key was present.
func (m Map[K, V]) Delete(key K) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.items[key]
	delete(m.items, key)

	return ok
}

// Len returns the number of key-value pairs in the map.
func (m Map[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.items)
}

// Keys returns a slice of all the keys in the map.
func (m Map[K, V]) Keys() []K {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]K, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}

	return keys
}

// Snapshot returns a copy of the internal map.
func (m Map[K, V]) Snapshot() map[K]V {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[K]V, len(m.items))
	for k, v := range m.items {
		out[k] = v
	}

	return out
}

// Clear removes every key.
func (m Map[K, V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	clear(m.items)
}
