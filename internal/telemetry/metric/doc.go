// Package metric provides Prometheus metrics for syncx tools.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: registry, bridge observer and HTTP handler
//   - collector.go: per-shard entry counts of concurrent maps
//
// Metrics include:
//
//   - Time host threads spent parked in bridge waits, by operation
//   - Outcomes of bridge waits (acquired, timeout, cancelled)
//   - Re-entries into host code from native waits
//   - Queue depth, map size and workload throughput
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
