package syncmap

import (
	"sync"
	"sync/atomic"
)

// Map is a type-safe wrapper around sync.Map that tracks its size.
type Map[K comparable, V any] struct {
	m     sync.Map
	count atomic.Int64
}

// Store stores the value for the key.
func (m *Map[K, V]) Store(key K, value V) {
	if _, loaded := m.m.Swap(key, value); !loaded {
		m.count.Add(1)
	}
}

// Load loads the value for the key.
func (m *Map[K, V]) Load(key K) (V, bool) {
	value, ok := m.m.Load(key)
	if !ok {
		var zero V

		return zero, false
	}

	return value.(V), true
}

// LoadAndDelete loads and deletes the value for the key. Only one concurrent
// caller observes ok for a given stored value.
func (m *Map[K, V]) LoadAndDelete(key K) (V, bool) {
	value, ok := m.m.LoadAndDelete(key)
	if !ok {
		var zero V

		return zero, false
	}

	m.count.Add(-1)

	return value.(V), true
}

// Delete deletes the value for the key.
func (m *Map[K, V]) Delete(key K) {
	m.LoadAndDelete(key)
}

// Range calls f for each key-value pair in the map.
func (m *Map[K, V]) Range(f func(key K, value V) bool) {
	m.m.Range(func(key, value any) bool {
		return f(key.(K), value.(V))
	})
}

// DeleteFunc removes every entry for which remove returns true and returns how many were removed.
func (m *Map[K, V]) DeleteFunc(remove func(key K, value V) bool) int {
	removed := 0

	m.Range(func(key K, value V) bool {
		if !remove(key, value) {
			return true
		}

		if _, ok := m.LoadAndDelete(key); ok {
			removed++
		}

		return true
	})

	return removed
}

// Count returns the number of items in the map.
func (m *Map[K, V]) Count() int {
	return int(m.count.Load())
}
