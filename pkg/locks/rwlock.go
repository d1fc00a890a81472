package locks

import (
	"context"
	"sync"
	"time"

	"github.com/yndnr/syncx-go/internal/park"
)

// RWLock is a reader-writer lock with writer preference: once a writer is
// waiting, new readers queue behind it. Readers that were already queued are
// let in together when the lock becomes available to them.
type RWLock struct {
	mu      sync.Mutex
	readers int
	writer  bool
	waiters park.Queue
}

// NewRWLock returns an unlocked reader-writer lock.
func NewRWLock() *RWLock {
	return &RWLock{}
}

func (l *RWLock) grabRead(woken bool) bool {
	if l.writer {
		return false
	}
	if !woken && l.waiters.Count(park.Exclusive) > 0 {
		return false
	}
	l.readers++
	return true
}

func (l *RWLock) grabWrite(bool) bool {
	if l.writer || l.readers > 0 {
		return false
	}
	l.writer = true
	return true
}

// wakeLocked wakes whoever can make progress in the current state: the
// front writer once no reader remains, or every reader at the front.
func (l *RWLock) wakeLocked() {
	if l.writer {
		return
	}
	w := l.waiters.Front()
	if w == nil {
		return
	}
	if w.Kind() == park.Exclusive {
		if l.readers == 0 {
			l.waiters.Wake(w)
		}
		return
	}
	for w != nil && w.Kind() == park.Shared {
		l.waiters.Wake(w)
		w = l.waiters.Front()
	}
}

// handOffLocked passes a free lock to the front writer, or to every reader
// at the front.
func (l *RWLock) handOffLocked() {
	w := l.waiters.Front()
	if w == nil {
		return
	}
	if w.Kind() == park.Exclusive {
		l.writer = true
		l.waiters.Grant(w)
		return
	}
	l.grantReadersLocked()
}

func (l *RWLock) grantReadersLocked() {
	for w := l.waiters.Front(); w != nil && w.Kind() == park.Shared; w = l.waiters.Front() {
		l.readers++
		l.waiters.Grant(w)
	}
}

func (l *RWLock) TryAcquireRead() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.grabRead(false)
}

func (l *RWLock) TryAcquireWrite() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.grabWrite(false)
}

// AcquireRead takes a shared hold, waiting as the options allow.
func (l *RWLock) AcquireRead(ctx context.Context, opts ...AcquireOption) (bool, error) {
	return acquire(ctx, "rwlock.read", resolve(opts), l.TryAcquireRead, func(deadline time.Time) (bool, error) {
		return park.Wait(ctx, &l.mu, &l.waiters, park.Shared, deadline, l.grabRead, l.wakeLocked)
	})
}

// AcquireWrite takes the exclusive hold, waiting as the options allow.
func (l *RWLock) AcquireWrite(ctx context.Context, opts ...AcquireOption) (bool, error) {
	return acquire(ctx, "rwlock.write", resolve(opts), l.TryAcquireWrite, func(deadline time.Time) (bool, error) {
		return park.Wait(ctx, &l.mu, &l.waiters, park.Exclusive, deadline, l.grabWrite, l.wakeLocked)
	})
}

// ReadRelease drops one shared hold.
func (l *RWLock) ReadRelease() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.readers == 0 {
		return ErrNotLocked
	}
	l.readers--
	if l.readers == 0 {
		l.wakeLocked()
	}
	return nil
}

// WriteRelease drops the exclusive hold.
func (l *RWLock) WriteRelease() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.writer {
		return ErrNotLocked
	}
	l.writer = false
	l.wakeLocked()
	return nil
}

// WriteReleaseFair drops the exclusive hold and hands the lock to the next
// waiter in line: one writer, or every reader queued ahead of the next
// writer.
func (l *RWLock) WriteReleaseFair() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.writer {
		return ErrNotLocked
	}
	l.writer = false
	l.handOffLocked()
	return nil
}

func (l *RWLock) readReleaseFair() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.readers == 0 {
		return ErrNotLocked
	}
	l.readers--
	if l.readers == 0 {
		l.handOffLocked()
	}
	return nil
}

func (l *RWLock) downgrade() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.writer {
		return ErrNotLocked
	}
	l.writer = false
	l.readers = 1
	l.grantReadersLocked()
	return nil
}

func (l *RWLock) hasWaiters() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.waiters.Len() > 0
}

// BumpShared lets queued threads run before the caller's shared hold
// resumes. It does nothing when nobody waits. The hold is re-established
// even if ctx is cancelled meanwhile.
//
// The caller must hold a shared hold. Shared holds are anonymous, so a
// caller without one would hand over another reader's hold; ReadGuard.Bump
// ties the call to a live guard.
func (l *RWLock) BumpShared(ctx context.Context) error {
	if !l.hasWaiters() {
		return nil
	}
	if err := l.readReleaseFair(); err != nil {
		return err
	}
	_, err := l.AcquireRead(context.WithoutCancel(ctx))
	return err
}

// BumpExclusive is BumpShared for the exclusive hold, which the caller must
// own. WriteGuard.Bump ties the call to a live guard.
func (l *RWLock) BumpExclusive(ctx context.Context) error {
	if !l.hasWaiters() {
		return nil
	}
	if err := l.WriteReleaseFair(); err != nil {
		return err
	}
	_, err := l.AcquireWrite(context.WithoutCancel(ctx))
	return err
}

// IsLocked reports whether the lock is held in either mode.
func (l *RWLock) IsLocked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writer || l.readers > 0
}

// IsWriteLocked reports whether a writer holds the lock.
func (l *RWLock) IsWriteLocked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writer
}

// Readers returns the number of shared holds.
func (l *RWLock) Readers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readers
}

// ReadGuard takes a shared hold and returns its guard, or nil on timeout.
func (l *RWLock) ReadGuard(ctx context.Context, opts ...AcquireOption) (*ReadGuard, error) {
	ok, err := l.AcquireRead(ctx, opts...)
	if !ok {
		return nil, err
	}
	return &ReadGuard{lock: l}, nil
}

// WriteGuard takes the exclusive hold and returns its guard, or nil on
// timeout.
func (l *RWLock) WriteGuard(ctx context.Context, opts ...AcquireOption) (*WriteGuard, error) {
	ok, err := l.AcquireWrite(ctx, opts...)
	if !ok {
		return nil, err
	}
	return &WriteGuard{lock: l}, nil
}

func (l *RWLock) TryReadGuard() *ReadGuard {
	if !l.TryAcquireRead() {
		return nil
	}
	return &ReadGuard{lock: l}
}

func (l *RWLock) TryWriteGuard() *WriteGuard {
	if !l.TryAcquireWrite() {
		return nil
	}
	return &WriteGuard{lock: l}
}

// Read runs fn under a shared hold.
func (l *RWLock) Read(ctx context.Context, fn func() error) error {
	g, err := l.ReadGuard(ctx)
	if err != nil {
		return err
	}
	defer g.Release()
	return fn()
}

// Write runs fn under the exclusive hold.
func (l *RWLock) Write(ctx context.Context, fn func() error) error {
	g, err := l.WriteGuard(ctx)
	if err != nil {
		return err
	}
	defer g.Release()
	return fn()
}
