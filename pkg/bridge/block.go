package bridge

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// Outcome classifies how a blocking wait ended.
type Outcome string

const (
	OutcomeAcquired  Outcome = "acquired"
	OutcomeTimeout   Outcome = "timeout"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeError     Outcome = "error"
)

// Observer receives bridge events. Implementations must be safe for
// concurrent use and must not block.
type Observer interface {
	ObserveBlock(op string, waited time.Duration, outcome Outcome)
	ObserveCall(op string, reacquired bool)
}

type observerHolder struct{ o Observer }

var observer atomic.Pointer[observerHolder]

// SetObserver installs o as the process-wide observer. A nil o removes it.
func SetObserver(o Observer) {
	if o == nil {
		observer.Store(nil)
		return
	}
	observer.Store(&observerHolder{o: o})
}

func currentObserver() Observer {
	if h := observer.Load(); h != nil {
		return h.o
	}
	return nil
}

// Block runs wait with the runtime lock released when ctx carries an attached
// thread of a serialized runtime. The lock is reacquired before Block returns,
// whether wait succeeds, times out, fails or panics.
//
// wait reports true when the awaited resource was obtained and false on
// timeout; an error means cancellation or failure.
func Block(ctx context.Context, op string, wait func() (bool, error)) (ok bool, err error) {
	start := time.Now()
	if th := serializedThread(ctx); th != nil && th.held {
		th.held = false
		th.rt.Release()
		defer func() {
			th.rt.Acquire()
			th.held = true
		}()
	}
	if o := currentObserver(); o != nil {
		defer func() {
			o.ObserveBlock(op, time.Since(start), outcomeOf(ok, err))
		}()
	}
	return wait()
}

// Call runs fn with the runtime lock held. Inside a Block span the lock is
// reacquired for the duration of fn and released again afterwards.
func Call[T any](ctx context.Context, op string, fn func() (T, error)) (T, error) {
	reacquired := false
	if th := serializedThread(ctx); th != nil && !th.held {
		th.rt.Acquire()
		th.held = true
		reacquired = true
		defer func() {
			th.held = false
			th.rt.Release()
		}()
	}
	if o := currentObserver(); o != nil {
		o.ObserveCall(op, reacquired)
	}
	return fn()
}

func outcomeOf(ok bool, err error) Outcome {
	switch {
	case err == nil && ok:
		return OutcomeAcquired
	case err == nil:
		return OutcomeTimeout
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCancelled
	default:
		return OutcomeError
	}
}
