package locks

import (
	"context"
	"sync"
	"time"

	"github.com/yndnr/syncx-go/internal/park"
	"github.com/yndnr/syncx-go/pkg/bridge"
)

// RLock is a reentrant lock. The owning host thread (or goroutine, when no
// thread is attached to the context) may acquire it again without blocking;
// it becomes free once every acquisition has been released.
type RLock struct {
	mu      sync.Mutex
	owner   uint64
	count   int
	waiters park.Queue
}

// NewRLock returns an unlocked reentrant lock.
func NewRLock() *RLock {
	return &RLock{}
}

func (l *RLock) grabFor(id uint64) func(bool) bool {
	return func(bool) bool {
		switch {
		case l.count == 0:
			l.owner = id
			l.count = 1
			return true
		case l.owner == id:
			l.count++
			return true
		}
		return false
	}
}

func (l *RLock) wakeLocked() {
	if l.count == 0 {
		l.waiters.WakeFront()
	}
}

func (l *RLock) tryFor(id uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.grabFor(id)(false)
}

// TryAcquire takes the lock if it is free or already owned by the caller.
func (l *RLock) TryAcquire(ctx context.Context) bool {
	return l.tryFor(bridge.OwnerID(ctx))
}

// Acquire takes the lock, waiting as the options allow.
func (l *RLock) Acquire(ctx context.Context, opts ...AcquireOption) (bool, error) {
	return l.acquireFor(ctx, bridge.OwnerID(ctx), opts)
}

func (l *RLock) acquireFor(ctx context.Context, id uint64, opts []AcquireOption) (bool, error) {
	try := func() bool { return l.tryFor(id) }
	return acquire(ctx, "rlock.acquire", resolve(opts), try, func(deadline time.Time) (bool, error) {
		return park.Wait(ctx, &l.mu, &l.waiters, park.Exclusive, deadline, l.grabFor(id), l.wakeLocked)
	})
}

// Release drops one level of the caller's hold.
func (l *RLock) Release(ctx context.Context) error {
	return l.releaseFor(bridge.OwnerID(ctx))
}

func (l *RLock) releaseFor(id uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.count == 0 || l.owner != id {
		return ErrNotLocked
	}
	l.count--
	if l.count == 0 {
		l.owner = 0
		l.waiters.WakeFront()
	}
	return nil
}

// Locked reports whether any thread holds the lock.
func (l *RLock) Locked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count > 0
}

// Count returns the owner's current hold depth.
func (l *RLock) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Guard acquires the lock and returns a guard for this level of the hold, or
// nil if the acquisition timed out.
func (l *RLock) Guard(ctx context.Context, opts ...AcquireOption) (*RLockGuard, error) {
	id := bridge.OwnerID(ctx)
	ok, err := l.acquireFor(ctx, id, opts)
	if !ok {
		return nil, err
	}
	return &RLockGuard{lock: l, owner: id}, nil
}

// TryGuard returns a guard if the lock could be taken without waiting.
func (l *RLock) TryGuard(ctx context.Context) *RLockGuard {
	id := bridge.OwnerID(ctx)
	if !l.tryFor(id) {
		return nil
	}
	return &RLockGuard{lock: l, owner: id}
}

// Do runs fn while holding the lock.
func (l *RLock) Do(ctx context.Context, fn func() error) error {
	g, err := l.Guard(ctx)
	if err != nil {
		return err
	}
	defer g.Release()
	return fn()
}
