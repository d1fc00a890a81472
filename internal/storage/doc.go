// Package storage persists syncx benchmark results and collection
// snapshots in an embedded Badger database.
//
//   - kv.go: KVEngine interface and tuning knobs
//   - badger.go: Badger v3 implementation with background value-log GC
//   - snapshot/: versioned, checksummed records keyed by ULID
package storage
