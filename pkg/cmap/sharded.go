package cmap

import (
	"encoding/binary"
	"errors"
	"hash/maphash"
	"sync"

	"github.com/spaolacci/murmur3"

	"github.com/yndnr/syncx-go/pkg/host"
	"github.com/yndnr/syncx-go/pkg/syncerr"
)

// DefaultShardCount is the default number of shards.
const DefaultShardCount = 16

// ErrKeyNotFound is returned by Delete, Pop and Remove for a missing key.
var ErrKeyNotFound = syncerr.New("SX-CMAP-0001", syncerr.KindLookup, "key not found")

// Hasher supplies hashing and equality for keys. Hash may fail for
// unhashable host objects; Equal must not.
type Hasher[K any] interface {
	Hash(key K) (uint64, error)
	Equal(a, b K) bool
}

type comparableHasher[K comparable] struct {
	seed maphash.Seed
}

func (h comparableHasher[K]) Hash(key K) (uint64, error) { return maphash.Comparable(h.seed, key), nil }
func (h comparableHasher[K]) Equal(a, b K) bool          { return a == b }

// Option configures a Map.
type Option func(*options)

type options struct {
	shardCount int
}

// WithShardCount sets the number of shards. Values that are not a positive
// power of two fall back to DefaultShardCount.
func WithShardCount(n int) Option {
	return func(o *options) { o.shardCount = n }
}

// Map is a concurrent-safe sharded map.
type Map[K, V any] struct {
	shards    []*shard[K, V]
	shardMask uint64
	hasher    Hasher[K]
}

// Entry is one key/value pair of an exported map state.
type Entry[K, V any] struct {
	Key   K
	Value V
}

type shard[K, V any] struct {
	mu      sync.RWMutex
	buckets map[uint64][]Entry[K, V]
	count   int
}

// New creates a map over comparable Go keys.
func New[K comparable, V any](opts ...Option) *Map[K, V] {
	return NewWithHasher[K, V](comparableHasher[K]{seed: maphash.MakeSeed()}, opts...)
}

// NewHostMap creates a map keyed by host objects.
func NewHostMap[V any](opts ...Option) *Map[host.Object, V] {
	return NewWithHasher[host.Object, V](host.Hasher{}, opts...)
}

// NewWithHasher creates a map using h for keys.
func NewWithHasher[K, V any](h Hasher[K], opts ...Option) *Map[K, V] {
	o := options{shardCount: DefaultShardCount}
	for _, opt := range opts {
		opt(&o)
	}
	// Ensure shardCount is a power of 2
	if o.shardCount <= 0 || o.shardCount&(o.shardCount-1) != 0 {
		o.shardCount = DefaultShardCount
	}

	m := &Map[K, V]{
		shards:    make([]*shard[K, V], o.shardCount),
		shardMask: uint64(o.shardCount - 1),
		hasher:    h,
	}
	for i := range m.shards {
		m.shards[i] = &shard[K, V]{
			buckets: make(map[uint64][]Entry[K, V]),
		}
	}
	return m
}

// getShard hashes key and picks its shard. The host hash is mixed with
// murmur3 first, since host hashes of small integers are often the integers
// themselves.
func (m *Map[K, V]) getShard(key K) (*shard[K, V], uint64, error) {
	h, err := m.hasher.Hash(key)
	if err != nil {
		return nil, 0, err
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], h)
	return m.shards[murmur3.Sum64(buf[:])&m.shardMask], h, nil
}

func (s *shard[K, V]) find(h Hasher[K], hash uint64, key K) int {
	for i, e := range s.buckets[hash] {
		if h.Equal(e.Key, key) {
			return i
		}
	}
	return -1
}

func (s *shard[K, V]) insert(hash uint64, key K, value V) {
	host.IncRef(key)
	host.IncRef(value)
	s.buckets[hash] = append(s.buckets[hash], Entry[K, V]{Key: key, Value: value})
	s.count++
}

// remove unlinks entry i of the bucket and returns it. The caller owns the
// entry's references.
func (s *shard[K, V]) remove(hash uint64, i int) Entry[K, V] {
	bucket := s.buckets[hash]
	e := bucket[i]
	last := len(bucket) - 1
	bucket[i] = bucket[last]
	bucket[last] = Entry[K, V]{}
	if last == 0 {
		delete(s.buckets, hash)
	} else {
		s.buckets[hash] = bucket[:last]
	}
	s.count--
	return e
}

func release[K, V any](entries []Entry[K, V]) {
	for _, e := range entries {
		host.DecRef(e.Key)
		host.DecRef(e.Value)
	}
}

// Get retrieves a value by key.
func (m *Map[K, V]) Get(key K) (V, bool, error) {
	var zero V
	shard, hash, err := m.getShard(key)
	if err != nil {
		return zero, false, err
	}
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	i := shard.find(m.hasher, hash, key)
	if i < 0 {
		return zero, false, nil
	}
	v := shard.buckets[hash][i].Value
	host.IncRef(v)
	return v, true, nil
}

// GetOr returns the value for key, or def when key is absent.
func (m *Map[K, V]) GetOr(key K, def V) (V, error) {
	v, ok, err := m.Get(key)
	if err != nil || ok {
		return v, err
	}
	return def, nil
}

// Has checks if a key exists.
func (m *Map[K, V]) Has(key K) (bool, error) {
	shard, hash, err := m.getShard(key)
	if err != nil {
		return false, err
	}
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	return shard.find(m.hasher, hash, key) >= 0, nil
}

// Set stores a key-value pair. An existing key keeps its original key object.
func (m *Map[K, V]) Set(key K, value V) error {
	shard, hash, err := m.getShard(key)
	if err != nil {
		return err
	}
	shard.mu.Lock()
	i := shard.find(m.hasher, hash, key)
	if i < 0 {
		shard.insert(hash, key, value)
		shard.mu.Unlock()
		return nil
	}
	host.IncRef(value)
	old := shard.buckets[hash][i].Value
	shard.buckets[hash][i].Value = value
	shard.mu.Unlock()
	host.DecRef(old)
	return nil
}

// SetIfAbsent stores the pair only if key is absent and reports whether it did.
func (m *Map[K, V]) SetIfAbsent(key K, value V) (bool, error) {
	shard, hash, err := m.getShard(key)
	if err != nil {
		return false, err
	}
	shard.mu.Lock()
	defer shard.mu.Unlock()
	if shard.find(m.hasher, hash, key) >= 0 {
		return false, nil
	}
	shard.insert(hash, key, value)
	return true, nil
}

// SetDefault returns the value for key, storing def first if key is absent.
func (m *Map[K, V]) SetDefault(key K, def V) (V, error) {
	shard, hash, err := m.getShard(key)
	if err != nil {
		return def, err
	}
	shard.mu.Lock()
	defer shard.mu.Unlock()
	v := def
	if i := shard.find(m.hasher, hash, key); i >= 0 {
		v = shard.buckets[hash][i].Value
	} else {
		shard.insert(hash, key, def)
	}
	host.IncRef(v)
	return v, nil
}

// Delete removes a key, returning ErrKeyNotFound if it is absent.
func (m *Map[K, V]) Delete(key K) error {
	e, err := m.take(key)
	if err != nil {
		return err
	}
	release([]Entry[K, V]{e})
	return nil
}

// Pop removes a key and returns its value, or ErrKeyNotFound.
func (m *Map[K, V]) Pop(key K) (V, error) {
	e, err := m.take(key)
	if err != nil {
		return e.Value, err
	}
	host.DecRef(e.Key)
	return e.Value, nil
}

// PopOr removes a key and returns its value, or def when key is absent.
func (m *Map[K, V]) PopOr(key K, def V) (V, error) {
	v, err := m.Pop(key)
	if errors.Is(err, ErrKeyNotFound) {
		return def, nil
	}
	return v, err
}

func (m *Map[K, V]) take(key K) (Entry[K, V], error) {
	shard, hash, err := m.getShard(key)
	if err != nil {
		return Entry[K, V]{}, err
	}
	shard.mu.Lock()
	defer shard.mu.Unlock()
	i := shard.find(m.hasher, hash, key)
	if i < 0 {
		return Entry[K, V]{}, ErrKeyNotFound
	}
	return shard.remove(hash, i), nil
}

// Update atomically replaces the value for key with fn(existing, exists) and
// returns the new value. fn runs under the shard lock and must not touch m.
func (m *Map[K, V]) Update(key K, fn func(value V, exists bool) V) (V, error) {
	shard, hash, err := m.getShard(key)
	if err != nil {
		var zero V
		return zero, err
	}
	shard.mu.Lock()
	i := shard.find(m.hasher, hash, key)
	if i < 0 {
		var zero V
		v := fn(zero, false)
		shard.insert(hash, key, v)
		shard.mu.Unlock()
		return v, nil
	}
	old := shard.buckets[hash][i].Value
	v := fn(old, true)
	host.IncRef(v)
	shard.buckets[hash][i].Value = v
	shard.mu.Unlock()
	host.DecRef(old)
	return v, nil
}

// Len returns the total number of items.
func (m *Map[K, V]) Len() int {
	count := 0
	for _, shard := range m.shards {
		shard.mu.RLock()
		count += shard.count
		shard.mu.RUnlock()
	}
	return count
}

// Clear removes all items. Each shard is emptied atomically; inserts into
// shards not yet cleared may survive.
func (m *Map[K, V]) Clear() {
	for _, shard := range m.shards {
		shard.mu.Lock()
		old := shard.buckets
		shard.buckets = make(map[uint64][]Entry[K, V])
		shard.count = 0
		shard.mu.Unlock()
		for _, bucket := range old {
			release(bucket)
		}
	}
}

// ShardCount returns the number of shards.
func (m *Map[K, V]) ShardCount() int {
	return len(m.shards)
}

// ShardStats returns statistics about each shard.
type ShardStats struct {
	Index   int
	Count   int
	Buckets int
}

// Stats returns statistics about all shards.
func (m *Map[K, V]) Stats() []ShardStats {
	stats := make([]ShardStats, len(m.shards))
	for i, shard := range m.shards {
		shard.mu.RLock()
		stats[i] = ShardStats{
			Index:   i,
			Count:   shard.count,
			Buckets: len(shard.buckets),
		}
		shard.mu.RUnlock()
	}
	return stats
}
