// Package main provides the entry point for syncx-bench.
//
// syncx-bench drives the syncx primitives from many host threads at once
// and checks that they keep their guarantees under contention:
//
//   - run: one pass over the selected workloads with a throughput report
//   - soak: repeated passes with a Prometheus endpoint and stored results
//   - snapshot: inspect, prune and back up stored results
//
// Usage:
//
//	syncx-bench [global flags] run [locks|rwlock|queue|map|all]
//	syncx-bench --config /path/to/syncx.yaml soak --metrics
//
// Configuration is read from the file given with --config, then SYNCX_*
// environment variables (SYNCX_BENCH__WORKERS=16), then flags.
package main
