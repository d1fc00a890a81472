package cmap

import (
	"errors"
	"iter"

	"github.com/yndnr/syncx-go/pkg/host"
)

// Set is a concurrent set built on Map.
type Set[K any] struct {
	m *Map[K, struct{}]
}

// NewSet creates a set of comparable Go values.
func NewSet[K comparable](opts ...Option) *Set[K] {
	return &Set[K]{m: New[K, struct{}](opts...)}
}

// NewHostSet creates a set of host objects.
func NewHostSet(opts ...Option) *Set[host.Object] {
	return &Set[host.Object]{m: NewHostMap[struct{}](opts...)}
}

// NewSetWithHasher creates a set using h for its members.
func NewSetWithHasher[K any](h Hasher[K], opts ...Option) *Set[K] {
	return &Set[K]{m: NewWithHasher[K, struct{}](h, opts...)}
}

// Add inserts key. Adding a present member keeps the original object.
func (s *Set[K]) Add(key K) error {
	_, err := s.m.SetIfAbsent(key, struct{}{})
	return err
}

// Discard removes key if present.
func (s *Set[K]) Discard(key K) error {
	if err := s.m.Delete(key); !errors.Is(err, ErrKeyNotFound) {
		return err
	}
	return nil
}

// Remove removes key, returning ErrKeyNotFound if it is absent.
func (s *Set[K]) Remove(key K) error {
	return s.m.Delete(key)
}

func (s *Set[K]) Contains(key K) (bool, error) { return s.m.Has(key) }
func (s *Set[K]) Len() int                     { return s.m.Len() }
func (s *Set[K]) Clear()                       { s.m.Clear() }

// All iterates over the members with the same guarantees as Map.All.
func (s *Set[K]) All() iter.Seq[K] {
	return s.m.Keys()
}

// Copy returns a new set with the same members.
func (s *Set[K]) Copy() *Set[K] {
	return &Set[K]{m: s.m.Clone()}
}

// State exports the members, each with a new reference.
func (s *Set[K]) State() []K {
	entries := s.m.State()
	keys := make([]K, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}

// Restore replaces the members with keys. Duplicates collapse.
func (s *Set[K]) Restore(keys []K) error {
	s.m.Clear()
	for _, k := range keys {
		if err := s.Add(k); err != nil {
			return err
		}
	}
	return nil
}
