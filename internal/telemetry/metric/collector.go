package metric

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/syncx-go/pkg/cmap"
)

// ShardSource is anything reporting per-shard statistics, such as a
// *cmap.Map or *cmap.Set's backing map.
type ShardSource interface {
	Stats() []cmap.ShardStats
}

// ShardCollector reports the entry count of every shard of the registered
// maps at scrape time.
type ShardCollector struct {
	mu      sync.RWMutex
	sources map[string]ShardSource
	desc    *prometheus.Desc
}

// NewShardCollector creates a collector with no sources.
func NewShardCollector() *ShardCollector {
	return &ShardCollector{
		sources: make(map[string]ShardSource),
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "map", "shard_entries"),
			"Entries per shard of a concurrent map.",
			[]string{"map", "shard"}, nil,
		),
	}
}

// Track starts reporting src under name, replacing any previous source.
func (c *ShardCollector) Track(name string, src ShardSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[name] = src
}

// Untrack stops reporting name.
func (c *ShardCollector) Untrack(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sources, name)
}

// Describe implements prometheus.Collector.
func (c *ShardCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *ShardCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for name, src := range c.sources {
		for _, s := range src.Stats() {
			ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue,
				float64(s.Count), name, strconv.Itoa(s.Index))
		}
	}
}
