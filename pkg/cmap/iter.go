package cmap

import (
	"iter"

	"github.com/yndnr/syncx-go/pkg/host"
)

// snapshot copies one shard's entries under its read lock, retaining them so
// they stay valid after the lock is dropped.
func (s *shard[K, V]) snapshot() []Entry[K, V] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]Entry[K, V], 0, s.count)
	for _, bucket := range s.buckets {
		for _, e := range bucket {
			host.IncRef(e.Key)
			host.IncRef(e.Value)
			entries = append(entries, e)
		}
	}
	return entries
}

// All iterates over all key-value pairs.
//
// Shards are visited one at a time and no lock is held while yielding, so the
// loop body may use the map freely. Entries inserted or removed during the
// iteration may or may not be seen.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, shard := range m.shards {
			entries := shard.snapshot()
			for i, e := range entries {
				if !yield(e.Key, e.Value) {
					release(entries[i:])
					return
				}
				release(entries[i : i+1])
			}
		}
	}
}

// Keys iterates over all keys.
func (m *Map[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range m.All() {
			if !yield(k) {
				return
			}
		}
	}
}

// Range iterates over all key-value pairs.
//
// The callback returns false to stop iteration.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	for k, v := range m.All() {
		if !fn(k, v) {
			return
		}
	}
}

// State exports every entry. The returned entries own a reference to their
// key and value.
func (m *Map[K, V]) State() []Entry[K, V] {
	var state []Entry[K, V]
	for _, shard := range m.shards {
		state = append(state, shard.snapshot()...)
	}
	return state
}

// Restore replaces the contents of m with entries. Later duplicates win.
func (m *Map[K, V]) Restore(entries []Entry[K, V]) error {
	m.Clear()
	for _, e := range entries {
		if err := m.Set(e.Key, e.Value); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a new map with the same hasher, shard count and entries.
func (m *Map[K, V]) Clone() *Map[K, V] {
	c := NewWithHasher[K, V](m.hasher, WithShardCount(len(m.shards)))
	for i, shard := range m.shards {
		shard.mu.RLock()
		dst := c.shards[i]
		for hash, bucket := range shard.buckets {
			for _, e := range bucket {
				dst.insert(hash, e.Key, e.Value)
			}
		}
		shard.mu.RUnlock()
	}
	return c
}
