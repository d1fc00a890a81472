package bench

import (
	"context"
	"errors"

	"github.com/yndnr/syncx-go/pkg/queue"
)

const queueMetricName = "bench"

func (r *runner) queueOpts() []queue.Option {
	if r.opts.AcquireTimeout < 0 {
		return nil
	}
	return []queue.Option{queue.WithTimeout(r.opts.AcquireTimeout)}
}

// runQueue pairs producers with consumers over one bounded queue. Every
// producer puts Ops items; consumers check that nothing is lost or
// duplicated and that each producer's items arrive in order.
func runQueue(ctx context.Context, r *runner) error {
	producers := max(r.opts.Workers/2, 1)
	consumers := max(r.opts.Workers-producers, 1)
	total := producers * r.opts.Ops

	q := queue.New[int](r.opts.QueueMaxSize)
	opts := r.queueOpts()
	sums := make([]int64, consumers)
	counts := make([]int, consumers)

	err := r.spawn(ctx, producers+consumers, func(ctx context.Context, worker int) error {
		if worker < producers {
			base := worker * r.opts.Ops
			for i := 0; i < r.opts.Ops; i++ {
				for {
					err := q.Put(ctx, base+i, opts...)
					if err == nil {
						break
					}
					if !errors.Is(err, queue.ErrFull) {
						return err
					}
					r.timedOut()
				}
				if err := r.step(ctx, i+1); err != nil {
					return err
				}
				if i%switchEvery == 0 && r.opts.Metrics != nil {
					r.opts.Metrics.SetQueueDepth(queueMetricName, q.Qsize())
				}
			}
			r.flush(r.opts.Ops)
			return nil
		}

		c := worker - producers
		share := total / consumers
		if c == 0 {
			share += total % consumers
		}
		last := make(map[int]int, producers)
		for i := 0; i < share; i++ {
			var item int
			for {
				v, err := q.Get(ctx, opts...)
				if err == nil {
					item = v
					break
				}
				if !errors.Is(err, queue.ErrEmpty) {
					return err
				}
				r.timedOut()
			}
			p, seq := item/r.opts.Ops, item%r.opts.Ops
			if prev, ok := last[p]; ok && seq <= prev {
				return invariant("producer %d item %d arrived after %d", p, seq, prev)
			}
			last[p] = seq
			sums[c] += int64(item)
			counts[c]++
			if (i+1)%switchEvery == 0 {
				if err := yield(ctx); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if r.opts.Metrics != nil {
		r.opts.Metrics.SetQueueDepth(queueMetricName, q.Qsize())
	}
	if err != nil {
		return err
	}

	var sum int64
	n := 0
	for c := range sums {
		sum += sums[c]
		n += counts[c]
	}
	if n != total {
		return invariant("consumed %d items, want %d", n, total)
	}
	if want := int64(total) * int64(total-1) / 2; sum != want {
		return invariant("item sum %d, want %d", sum, want)
	}
	if left := q.Qsize(); left != 0 {
		return invariant("%d items left in queue", left)
	}
	return nil
}
