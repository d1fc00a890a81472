// Package bench drives syncx primitives from many host threads and checks
// that they keep their guarantees under contention.
//
// Each workload attaches its workers to a bridge.Runtime, so a serialized
// runtime exercises the release-and-reacquire path of every blocking call.
// Workers yield the runtime lock every few operations, the way an
// interpreter switches threads, and pace themselves with a token bucket
// when a rate is configured.
//
// Workloads:
//
//   - locks: a plain counter guarded by Lock, plus nested RLock entries
//   - rwlock: paired fields written under the write lock and checked by readers
//   - queue: producers and consumers moving numbered items through a Queue
//   - map: per-key counters updated in a sharded Map and a running total
package bench
