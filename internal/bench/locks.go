package bench

import (
	"context"

	"github.com/yndnr/syncx-go/pkg/locks"
)

func (r *runner) lockOpts() []locks.AcquireOption {
	if r.opts.AcquireTimeout < 0 {
		return nil
	}
	return []locks.AcquireOption{locks.WithTimeout(r.opts.AcquireTimeout)}
}

// retry calls acquire until it succeeds, counting timeouts.
func (r *runner) retry(acquire func() (bool, error)) error {
	for {
		ok, err := acquire()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		r.timedOut()
	}
}

func runLocks(ctx context.Context, r *runner) error {
	var (
		lock    = locks.NewLock()
		rlock   = locks.NewRLock()
		counter int64 // guarded by lock
		nested  int64 // guarded by rlock
	)
	opts := r.lockOpts()

	err := r.spawn(ctx, r.opts.Workers, func(ctx context.Context, _ int) error {
		for i := 1; i <= r.opts.Ops; i++ {
			if err := r.retry(func() (bool, error) { return lock.Acquire(ctx, opts...) }); err != nil {
				return err
			}
			counter++
			// Hold the lock across a thread switch now and then so others
			// queue on it.
			if i%16 == 0 {
				if err := yield(ctx); err != nil {
					_ = lock.Release()
					return err
				}
			}
			release := lock.Release
			if r.opts.Fair {
				release = lock.ReleaseFair
			}
			if err := release(); err != nil {
				return err
			}

			if i%8 == 0 {
				if err := r.nestedHold(ctx, rlock, &nested); err != nil {
					return err
				}
			}
			if err := r.step(ctx, i); err != nil {
				return err
			}
		}
		r.flush(r.opts.Ops)
		return nil
	})
	if err != nil {
		return err
	}

	want := int64(r.opts.Workers) * int64(r.opts.Ops)
	if counter != want {
		return invariant("lock counter %d, want %d", counter, want)
	}
	if wantNested := int64(r.opts.Workers) * int64(r.opts.Ops/8); nested != wantNested {
		return invariant("rlock counter %d, want %d", nested, wantNested)
	}
	if lock.Locked() || rlock.Locked() {
		return invariant("lock still held after run")
	}
	return nil
}

// nestedHold takes rlock twice through guards, as recursive host code would.
func (r *runner) nestedHold(ctx context.Context, rlock *locks.RLock, n *int64) error {
	var outer *locks.RLockGuard
	err := r.retry(func() (bool, error) {
		g, err := rlock.Guard(ctx, r.lockOpts()...)
		outer = g
		return g != nil, err
	})
	if err != nil {
		return err
	}
	defer outer.Release()

	inner := rlock.TryGuard(ctx)
	if inner == nil {
		return invariant("rlock not re-entrant for its owner")
	}
	*n++
	if depth := rlock.Count(); depth != 2 {
		_ = inner.Release()
		return invariant("rlock depth %d, want 2", depth)
	}
	return inner.Release()
}
