package metric

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/syncx-go/pkg/bridge"
)

const namespace = "syncx"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Bridge metrics
	BlockDuration *prometheus.HistogramVec
	BlockTotal    *prometheus.CounterVec
	HostCalls     *prometheus.CounterVec

	// Collection metrics
	QueueDepth *prometheus.GaugeVec
	MapEntries *prometheus.GaugeVec

	// Workload metrics
	WorkloadOps      *prometheus.CounterVec
	WorkloadDuration *prometheus.HistogramVec

	shards *ShardCollector
}

var _ bridge.Observer = (*Registry)(nil)

var (
	globalRegistry *Registry
	globalOnce     sync.Once
)

// NewRegistry creates a new metrics registry with Go runtime and process
// collectors registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		registry: reg,
		BlockDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "block_duration_seconds",
			Help:      "Time host threads spent parked with the runtime lock released.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"op"}),
		BlockTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "block_total",
			Help:      "Blocking waits by operation and outcome.",
		}, []string{"op", "outcome"}),
		HostCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "host_calls_total",
			Help:      "Calls into host code from native operations.",
		}, []string{"op", "reacquired"}),
		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Items currently held by a queue.",
		}, []string{"queue"}),
		MapEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "map_entries",
			Help:      "Entries currently held by a concurrent map.",
		}, []string{"map"}),
		WorkloadOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workload_ops_total",
			Help:      "Operations completed by benchmark workloads.",
		}, []string{"workload"}),
		WorkloadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workload_duration_seconds",
			Help:      "Wall time of benchmark workload runs.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"workload"}),
		shards: NewShardCollector(),
	}

	reg.MustRegister(
		r.BlockDuration,
		r.BlockTotal,
		r.HostCalls,
		r.QueueDepth,
		r.MapEntries,
		r.WorkloadOps,
		r.WorkloadDuration,
		r.shards,
	)
	return r
}

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// Handler returns an HTTP handler for the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// Handler returns an HTTP handler exposing this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Gatherer returns the underlying Prometheus gatherer.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Registerer returns the underlying Prometheus registerer for collectors
// owned by other packages.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// ObserveBlock implements bridge.Observer.
func (r *Registry) ObserveBlock(op string, waited time.Duration, outcome bridge.Outcome) {
	r.BlockDuration.WithLabelValues(op).Observe(waited.Seconds())
	r.BlockTotal.WithLabelValues(op, string(outcome)).Inc()
}

// ObserveCall implements bridge.Observer.
func (r *Registry) ObserveCall(op string, reacquired bool) {
	r.HostCalls.WithLabelValues(op, strconv.FormatBool(reacquired)).Inc()
}

// SetQueueDepth records the depth of the named queue.
func (r *Registry) SetQueueDepth(queue string, depth int) {
	r.QueueDepth.WithLabelValues(queue).Set(float64(depth))
}

// SetMapEntries records the size of the named map.
func (r *Registry) SetMapEntries(name string, n int) {
	r.MapEntries.WithLabelValues(name).Set(float64(n))
}

// AddWorkloadOps counts completed workload operations.
func (r *Registry) AddWorkloadOps(workload string, n int) {
	r.WorkloadOps.WithLabelValues(workload).Add(float64(n))
}

// ObserveWorkloadDuration records the wall time of one workload run.
func (r *Registry) ObserveWorkloadDuration(workload string, d time.Duration) {
	r.WorkloadDuration.WithLabelValues(workload).Observe(d.Seconds())
}

// Shards returns the collector reporting per-shard map statistics.
func (r *Registry) Shards() *ShardCollector {
	return r.shards
}
