// Package benchmark holds micro-benchmarks for the syncx primitives under
// both host runtimes.
//
// Run benchmarks with:
//
//	go test -bench=. -benchmem ./internal/tests/benchmark/...
//
// Compare results:
//
//	benchstat old.txt new.txt
package benchmark
