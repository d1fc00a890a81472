package locks

import (
	"context"
	"sync"
	"time"

	"github.com/yndnr/syncx-go/internal/park"
)

// Lock is a mutual-exclusion lock. It is not reentrant and may be released
// by any thread. The zero value is an unlocked lock.
type Lock struct {
	mu      sync.Mutex
	locked  bool
	waiters park.Queue
}

// NewLock returns an unlocked lock.
func NewLock() *Lock {
	return &Lock{}
}

func (l *Lock) grab(bool) bool {
	if l.locked {
		return false
	}
	l.locked = true
	return true
}

func (l *Lock) wakeLocked() {
	if !l.locked {
		l.waiters.WakeFront()
	}
}

// TryAcquire takes the lock if it is free. It never waits.
func (l *Lock) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.grab(false)
}

// Acquire takes the lock, waiting as the options allow. It returns false on
// timeout and ctx.Err() if ctx is cancelled first.
func (l *Lock) Acquire(ctx context.Context, opts ...AcquireOption) (bool, error) {
	return acquire(ctx, "lock.acquire", resolve(opts), l.TryAcquire, func(deadline time.Time) (bool, error) {
		return park.Wait(ctx, &l.mu, &l.waiters, park.Exclusive, deadline, l.grab, l.wakeLocked)
	})
}

// Release unlocks the lock and wakes the longest waiter.
func (l *Lock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.locked {
		return ErrNotLocked
	}
	l.locked = false
	l.waiters.WakeFront()
	return nil
}

// ReleaseFair passes the lock directly to the longest waiter, or unlocks it
// when nobody waits.
func (l *Lock) ReleaseFair() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.locked {
		return ErrNotLocked
	}
	if w := l.waiters.Front(); w != nil {
		l.waiters.Grant(w)
		return nil
	}
	l.locked = false
	return nil
}

// Locked reports whether the lock is held. The answer may be stale by the
// time the caller sees it.
func (l *Lock) Locked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.locked
}

// Guard acquires the lock and returns a guard for it, or nil if the
// acquisition timed out.
func (l *Lock) Guard(ctx context.Context, opts ...AcquireOption) (*LockGuard, error) {
	ok, err := l.Acquire(ctx, opts...)
	if !ok {
		return nil, err
	}
	return &LockGuard{lock: l}, nil
}

// TryGuard returns a guard if the lock was free, nil otherwise.
func (l *Lock) TryGuard() *LockGuard {
	if !l.TryAcquire() {
		return nil
	}
	return &LockGuard{lock: l}
}

// Do runs fn while holding the lock.
func (l *Lock) Do(ctx context.Context, fn func() error) error {
	g, err := l.Guard(ctx)
	if err != nil {
		return err
	}
	defer g.Release()
	return fn()
}

func (l *Lock) Lock(ctx context.Context, opts ...AcquireOption) (bool, error) {
	return l.Acquire(ctx, opts...)
}

func (l *Lock) TryLock() bool  { return l.TryAcquire() }
func (l *Lock) Unlock() error  { return l.Release() }
func (l *Lock) IsLocked() bool { return l.Locked() }
