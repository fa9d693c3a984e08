package sortedvec

import (
	"cmp"

	"github.com/hupe1980/dynamize"
)

// Entry is a key/value pair stored by Map.
type Entry[K, V any] struct {
	Key   K
	Value V
}

// Map is an associative array with at most one live entry per key.
//
// Reads are safe for concurrent use with one writer; mutations must be
// serialized by the caller.
type Map[K, V any] struct {
	c   *Container[Entry[K, V]]
	cmp func(a, b Entry[K, V]) int
}

// NewMap returns an empty map over an ordered key type.
func NewMap[K cmp.Ordered, V any](optFns ...dynamize.Option) (*Map[K, V], error) {
	return NewMapFunc[K, V](cmp.Compare[K], optFns...)
}

// NewMapFunc returns an empty map ordering keys by compare.
func NewMapFunc[K, V any](compare func(a, b K) int, optFns ...dynamize.Option) (*Map[K, V], error) {
	byKey := func(a, b Entry[K, V]) int { return compare(a.Key, b.Key) }

	c, err := NewContainer(byKey, optFns...)
	if err != nil {
		return nil, err
	}
	return &Map[K, V]{c: c, cmp: byKey}, nil
}

// Container exposes the underlying container.
func (m *Map[K, V]) Container() *Container[Entry[K, V]] { return m.c }

// Get returns the value stored under key.
func (m *Map[K, V]) Get(key K) (V, bool, error) {
	found, err := m.c.Query(Lookup(Entry[K, V]{Key: key}), Concat[Entry[K, V]])
	if err != nil || len(found) == 0 {
		var zero V
		return zero, false, err
	}
	return found[0].Value, true, nil
}

// Insert stores value under key and returns the value it replaced, if any.
// A replacement is published as one mutation, so on failure the previous
// entry is still in place.
func (m *Map[K, V]) Insert(key K, value V) (V, bool, error) {
	entry := Entry[K, V]{Key: key, Value: value}

	prev, ok, err := m.Get(key)
	if err != nil {
		return prev, false, err
	}
	if !ok {
		return prev, false, m.c.Insert(entry)
	}

	if err := m.c.Replace(Entry[K, V]{Key: key}, entry); err != nil {
		var zero V
		return zero, false, err
	}
	return prev, true, nil
}

// Remove deletes key and returns its value, if any.
func (m *Map[K, V]) Remove(key K) (V, bool, error) {
	prev, ok, err := m.Get(key)
	if err != nil || !ok {
		return prev, ok, err
	}
	if err := m.c.Delete(Entry[K, V]{Key: key}); err != nil {
		var zero V
		return zero, false, err
	}
	return prev, true, nil
}

// Len returns the number of keys.
func (m *Map[K, V]) Len() int { return m.c.Live() }

// Keys returns every key in ascending order.
func (m *Map[K, V]) Keys() ([]K, error) {
	entries, err := m.c.Query(All[Entry[K, V]](), MergeSorted(m.cmp))
	if err != nil {
		return nil, err
	}
	keys := make([]K, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys, nil
}
