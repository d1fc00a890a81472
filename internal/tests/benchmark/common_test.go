package benchmark

import (
	"context"
	"fmt"
	"runtime"
	"testing"

	"github.com/yndnr/syncx-go/pkg/bridge"
)

// EntryCounts are the collection sizes the snapshot benchmarks cover.
var EntryCounts = []int{1000, 10000, 50000}

// runtimes are the host runtimes every primitive is measured under.
var runtimes = []struct {
	name string
	new  func() bridge.Runtime
}{
	{"serialized", bridge.NewSerialized},
	{"free", bridge.FreeThreaded},
}

// forEachRuntime runs fn once per runtime. The context passed to fn
// creates a fresh attached thread per parallel goroutine via attach.
func forEachRuntime(b *testing.B, fn func(b *testing.B, attach func() (context.Context, func()))) {
	for _, rt := range runtimes {
		b.Run(rt.name, func(b *testing.B) {
			r := rt.new()
			fn(b, func() (context.Context, func()) {
				ctx, th := bridge.Attach(context.Background(), r)
				return ctx, th.Detach
			})
		})
	}
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithCounts runs a benchmark function with various entry counts.
func runWithCounts(b *testing.B, counts []int, benchFn func(b *testing.B, count int)) {
	for _, count := range counts {
		b.Run(fmt.Sprintf("entries_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
