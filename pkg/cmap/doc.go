// Package cmap provides a concurrent hash map and set for host keys.
//
// This package implements a sharded map with the following features:
//
//   - Sharding: power-of-two shard count, keys spread by a murmur3 mix of
//     their hash
//   - Fine-grained Locking: per-shard RWMutex, so operations on keys in
//     different shards never contend
//   - Host Keys: hashing and equality come from a Hasher, which lets host
//     objects with fallible __hash__/__eq__ serve as keys
//   - Lazy Iteration: one shard is copied at a time and yielded outside its
//     lock; the view is weakly consistent but never shows a torn entry
//   - State Export: State/Restore produce and consume plain entry lists
//
// Usage:
//
//	m := cmap.New[string, int](cmap.WithShardCount(32))
//	_ = m.Set("key", 1)
//	val, ok, _ := m.Get("key")
//
//	hm := cmap.NewHostMap[host.Object]()
//	_ = hm.Set(host.Str("k"), host.Int(1))
//
// Reference counting:
//
// Keys and values implementing host.RefCounted are retained while stored and
// released when overwritten, deleted or cleared. Get, SetDefault and State
// hand out new references; Pop transfers the map's reference to the caller;
// iteration lends entries for the duration of the callback.
package cmap
