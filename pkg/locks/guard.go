package locks

import (
	"context"
	"sync/atomic"
)

// once marks a guard released exactly once.
type once struct {
	released atomic.Bool
}

func (g *once) finish() error {
	if !g.released.CompareAndSwap(false, true) {
		return ErrAlreadyReleased
	}
	return nil
}

// Released reports whether the guard has been released.
func (g *once) Released() bool { return g.released.Load() }

// LockGuard holds a Lock until released.
type LockGuard struct {
	once
	lock *Lock
}

// Release unlocks the lock.
func (g *LockGuard) Release() error {
	if err := g.finish(); err != nil {
		return err
	}
	return g.lock.Release()
}

// ReleaseFair unlocks the lock, handing it to the longest waiter if any.
func (g *LockGuard) ReleaseFair() error {
	if err := g.finish(); err != nil {
		return err
	}
	return g.lock.ReleaseFair()
}

func (g *LockGuard) Unlock() error { return g.Release() }
func (g *LockGuard) Close() error  { return g.Release() }

// RLockGuard holds one level of an RLock until released.
type RLockGuard struct {
	once
	lock  *RLock
	owner uint64
}

// Release drops the hold this guard represents.
func (g *RLockGuard) Release() error {
	if err := g.finish(); err != nil {
		return err
	}
	return g.lock.releaseFor(g.owner)
}

func (g *RLockGuard) Unlock() error { return g.Release() }
func (g *RLockGuard) Close() error  { return g.Release() }

// ReadGuard holds a shared acquisition of an RWLock.
type ReadGuard struct {
	once
	lock *RWLock
}

// Release drops the shared hold.
func (g *ReadGuard) Release() error {
	if err := g.finish(); err != nil {
		return err
	}
	return g.lock.ReadRelease()
}

// Bump yields the shared hold to queued threads and takes it back. See
// RWLock.BumpShared.
func (g *ReadGuard) Bump(ctx context.Context) error {
	if g.Released() {
		return ErrAlreadyReleased
	}
	return g.lock.BumpShared(ctx)
}

func (g *ReadGuard) Unlock() error { return g.Release() }
func (g *ReadGuard) Close() error  { return g.Release() }

// WriteGuard holds an exclusive acquisition of an RWLock.
type WriteGuard struct {
	once
	lock *RWLock
}

// Release unlocks the lock.
func (g *WriteGuard) Release() error {
	if err := g.finish(); err != nil {
		return err
	}
	return g.lock.WriteRelease()
}

// ReleaseFair unlocks the lock, handing it to the next waiters in line.
func (g *WriteGuard) ReleaseFair() error {
	if err := g.finish(); err != nil {
		return err
	}
	return g.lock.WriteReleaseFair()
}

// Bump yields the exclusive hold to queued threads and takes it back.
func (g *WriteGuard) Bump(ctx context.Context) error {
	if g.Released() {
		return ErrAlreadyReleased
	}
	return g.lock.BumpExclusive(ctx)
}

func (g *WriteGuard) Unlock() error { return g.Release() }
func (g *WriteGuard) Close() error  { return g.Release() }

// Downgrade atomically turns the exclusive hold into a shared one. No writer
// can get in between; readers waiting at the head of the queue are let in.
// The write guard is spent afterwards.
func (g *WriteGuard) Downgrade() (*ReadGuard, error) {
	if err := g.finish(); err != nil {
		return nil, err
	}
	if err := g.lock.downgrade(); err != nil {
		return nil, err
	}
	return &ReadGuard{lock: g.lock}, nil
}
