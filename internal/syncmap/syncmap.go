// Package syncmap provides a typed concurrent map.
package syncmap

import (
	"iter"
	"sync"
)

// Map is a map guarded by a RWMutex. It suits registries that are read on
// every broadcast and written only on connect and disconnect.
type Map[K comparable, V any] struct {
	m  map[K]V
	mu sync.RWMutex
}

// New creates an empty Map.
func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{m: make(map[K]V)}
}

// Load returns the value for key and whether it was present.
func (sm *Map[K, V]) Load(key K) (value V, ok bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	value, ok = sm.m[key]
	return
}

// Store sets the value for key.
func (sm *Map[K, V]) Store(key K, value V) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.m[key] = value
}

// LoadOrStore returns the existing value for key if present. Otherwise it
// stores value and returns it with loaded false.
func (sm *Map[K, V]) LoadOrStore(key K, value V) (actual V, loaded bool) {
	sm.mu.RLock()
	actual, loaded = sm.m[key]
	sm.mu.RUnlock()
	if loaded {
		return actual, true
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	if actual, loaded = sm.m[key]; loaded {
		return actual, true
	}
	sm.m[key] = value
	return value, false
}

// LoadAndDelete removes key and returns the value it held.
func (sm *Map[K, V]) LoadAndDelete(key K) (value V, loaded bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	value, loaded = sm.m[key]
	delete(sm.m, key)
	return
}

// Delete removes key.
func (sm *Map[K, V]) Delete(key K) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.m, key)
}

// Len returns the number of entries.
func (sm *Map[K, V]) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.m)
}

// All iterates over a snapshot of the entries. Mutating the map while
// iterating is safe.
func (sm *Map[K, V]) All() iter.Seq2[K, V] {
	sm.mu.RLock()
	snapshot := make(map[K]V, len(sm.m))
	for k, v := range sm.m {
		snapshot[k] = v
	}
	sm.mu.RUnlock()

	return func(yield func(K, V) bool) {
		for k, v := range snapshot {
			if !yield(k, v) {
				return
			}
		}
	}
}

// Clear removes every entry and returns what was removed.
func (sm *Map[K, V]) Clear() map[K]V {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	old := sm.m
	sm.m = make(map[K]V)
	return old
}
