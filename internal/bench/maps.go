package bench

import (
	"context"

	"github.com/yndnr/syncx-go/pkg/atomicx"
	"github.com/yndnr/syncx-go/pkg/cmap"
)

const (
	mapMetricName   = "bench"
	defaultMapKeys  = 1024
	updateViaAtomic = 32
)

// runMap has every worker bump counters spread over MapKeys keys of one
// sharded map, mirroring each bump in an atomic total and a key set.
func runMap(ctx context.Context, r *runner) error {
	keys := r.opts.MapKeys
	if keys <= 0 {
		keys = defaultMapKeys
	}
	var opts []cmap.Option
	if r.opts.MapShards > 0 {
		opts = append(opts, cmap.WithShardCount(r.opts.MapShards))
	}
	m := cmap.New[int, int64](opts...)
	seen := cmap.NewSet[int](opts...)
	total := atomicx.NewInt(0)

	if reg := r.opts.Metrics; reg != nil {
		reg.Shards().Track(mapMetricName, m)
		defer reg.Shards().Untrack(mapMetricName)
	}

	err := r.spawn(ctx, r.opts.Workers, func(ctx context.Context, worker int) error {
		for i := 1; i <= r.opts.Ops; i++ {
			key := (worker*7919 + i) % keys
			if _, err := m.Update(key, func(v int64, _ bool) int64 { return v + 1 }); err != nil {
				return err
			}
			if err := seen.Add(key); err != nil {
				return err
			}
			if i%updateViaAtomic == 0 {
				if _, err := total.Update(ctx, func(v int64) (int64, error) { return v + 1, nil }); err != nil {
					return err
				}
			} else {
				total.Inc()
			}
			if i%switchEvery == 0 && r.opts.Metrics != nil {
				r.opts.Metrics.SetMapEntries(mapMetricName, m.Len())
			}
			if err := r.step(ctx, i); err != nil {
				return err
			}
		}
		r.flush(r.opts.Ops)
		return nil
	})
	if r.opts.Metrics != nil {
		r.opts.Metrics.SetMapEntries(mapMetricName, m.Len())
	}
	if err != nil {
		return err
	}

	want := int64(r.opts.Workers) * int64(r.opts.Ops)
	var sum int64
	for _, v := range m.All() {
		sum += v
	}
	if sum != want {
		return invariant("map counters sum to %d, want %d", sum, want)
	}
	if got := total.Load(); got != want {
		return invariant("atomic total %d, want %d", got, want)
	}
	if m.Len() != seen.Len() {
		return invariant("map has %d keys, set has %d", m.Len(), seen.Len())
	}
	if m.Len() > keys {
		return invariant("map has %d keys, at most %d expected", m.Len(), keys)
	}
	return nil
}
