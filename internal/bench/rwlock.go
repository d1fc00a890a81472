package bench

import (
	"context"

	"github.com/yndnr/syncx-go/pkg/locks"
)

// writeEvery makes one operation in writeEvery a write.
const writeEvery = 10

func runRWLock(ctx context.Context, r *runner) error {
	var (
		rw     = locks.NewRWLock()
		a, b   int64 // written together under the write lock
		writes int64
	)
	opts := r.lockOpts()

	err := r.spawn(ctx, r.opts.Workers, func(ctx context.Context, worker int) error {
		for i := 1; i <= r.opts.Ops; i++ {
			if (i+worker)%writeEvery == 0 {
				var g *locks.WriteGuard
				if err := r.retry(func() (bool, error) {
					var err error
					g, err = rw.WriteGuard(ctx, opts...)
					return g != nil, err
				}); err != nil {
					return err
				}
				a++
				if i%(writeEvery*4) == 0 {
					// Let readers see the half-written state if the
					// exclusion were broken.
					if err := yield(ctx); err != nil {
						_ = g.Release()
						return err
					}
				}
				b++
				writes++
				if i%(writeEvery*8) == 0 {
					rg, err := g.Downgrade()
					if err != nil {
						return err
					}
					if a != b {
						_ = rg.Release()
						return invariant("downgraded reader saw a=%d b=%d", a, b)
					}
					if err := rg.Release(); err != nil {
						return err
					}
				} else {
					release := g.Release
					if r.opts.Fair {
						release = g.ReleaseFair
					}
					if err := release(); err != nil {
						return err
					}
				}
			} else {
				var g *locks.ReadGuard
				if err := r.retry(func() (bool, error) {
					var err error
					g, err = rw.ReadGuard(ctx, opts...)
					return g != nil, err
				}); err != nil {
					return err
				}
				seenA, seenB := a, b
				if i%32 == 0 {
					if err := g.Bump(ctx); err != nil {
						return err
					}
				}
				if err := g.Release(); err != nil {
					return err
				}
				if seenA != seenB {
					return invariant("reader saw a=%d b=%d", seenA, seenB)
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

	if a != writes || b != writes {
		return invariant("a=%d b=%d after %d writes", a, b, writes)
	}
	if rw.IsLocked() {
		return invariant("rwlock still held after run")
	}
	return nil
}
