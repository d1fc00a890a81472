// Package locks provides a mutual-exclusion lock, a reentrant lock and a
// reader-writer lock for host threads.
//
// Every blocking acquisition first tries to take the lock; only when that
// fails does it park, with the host runtime lock released for the duration of
// the wait (see package bridge). Acquisition accepts NonBlocking, WithTimeout
// and WithTimeoutSeconds; a timeout reports false rather than an error, while
// cancellation of the context reports ctx.Err().
//
// Guards tie one successful acquisition to exactly one release. The scoped
// helpers (Lock.Do, RLock.Do, RWLock.Read, RWLock.Write) release on every exit
// path including panics, and a lock never becomes unusable because a holder
// panicked.
//
// Release is barging: an unlocked lock may be taken by a newcomer before the
// waiter it woke gets to run. The fair variants hand ownership straight to
// the longest waiter instead.
package locks

import "github.com/yndnr/syncx-go/pkg/syncerr"

var (
	// ErrNotLocked is returned when releasing a lock the caller does not hold.
	ErrNotLocked = syncerr.New("SX-LOCK-0001", syncerr.KindRuntime, "release of unlocked lock")

	// ErrAlreadyReleased is returned when a guard is released a second time.
	ErrAlreadyReleased = syncerr.New("SX-LOCK-0002", syncerr.KindRuntime, "guard already released")
)
