// Package park implements the native wait queue shared by the locks and the
// FIFO queue.
//
// Callers protect their own state and a Queue with one sync.Mutex. A thread
// that cannot proceed parks with Wait; whoever changes the state so that a
// parked thread may proceed calls Wake (the woken thread re-checks and may
// lose to a barging thread) or Grant (ownership is handed over directly).
package park

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Kind is what a waiter is waiting for.
type Kind uint8

const (
	Exclusive Kind = iota
	Shared
)

// Waiter is a parked thread.
type Waiter struct {
	kind    Kind
	granted bool
	ready   chan struct{}
	elem    *list.Element
}

// Kind returns what w waits for.
func (w *Waiter) Kind() Kind { return w.kind }

// Queue is a FIFO of parked threads. The zero value is empty and ready to use.
// All methods require the caller's mutex.
type Queue struct {
	l      list.List
	counts [2]int
}

// Len returns the number of parked threads.
func (q *Queue) Len() int { return q.l.Len() }

// Count returns the number of parked threads of kind k.
func (q *Queue) Count(k Kind) int { return q.counts[k] }

// Front returns the longest-waiting thread, or nil.
func (q *Queue) Front() *Waiter {
	if e := q.l.Front(); e != nil {
		return e.Value.(*Waiter)
	}
	return nil
}

func (q *Queue) pushBack(w *Waiter) {
	w.elem = q.l.PushBack(w)
	q.counts[w.kind]++
}

func (q *Queue) pushFront(w *Waiter) {
	w.elem = q.l.PushFront(w)
	q.counts[w.kind]++
}

func (q *Queue) remove(w *Waiter) bool {
	if w.elem == nil {
		return false
	}
	q.l.Remove(w.elem)
	w.elem = nil
	q.counts[w.kind]--
	return true
}

// Wake unparks w. It will re-check the state and park again at the front
// if it cannot proceed.
func (q *Queue) Wake(w *Waiter) {
	if q.remove(w) {
		signal(w)
	}
}

// WakeFront unparks the longest-waiting thread and reports whether there was one.
func (q *Queue) WakeFront() bool {
	w := q.Front()
	if w == nil {
		return false
	}
	q.Wake(w)
	return true
}

// Grant unparks w and tells it that it now owns what it waited for.
func (q *Queue) Grant(w *Waiter) {
	if q.remove(w) {
		w.granted = true
		signal(w)
	}
}

func signal(w *Waiter) {
	select {
	case w.ready <- struct{}{}:
	default:
	}
}

// Wait parks the calling thread until grab succeeds, the deadline passes or
// ctx is cancelled. A zero deadline waits forever.
//
// Wait locks mu itself and returns with mu unlocked. grab is called with mu
// held; its argument is true when the thread was just woken, which lets grab
// ignore queue-order preferences that apply to newcomers. wake is called with
// mu held when a woken thread gives up, so the wakeup passes to the next
// waiter instead of being lost.
//
// It returns true once grab succeeded or ownership was granted, false on
// timeout, and ctx.Err() on cancellation. A grant that races a timeout or a
// cancellation wins.
func Wait(ctx context.Context, mu *sync.Mutex, q *Queue, kind Kind, deadline time.Time, grab func(woken bool) bool, wake func()) (bool, error) {
	mu.Lock()
	if grab(false) {
		mu.Unlock()
		return true, nil
	}

	w := &Waiter{kind: kind, ready: make(chan struct{}, 1)}
	q.pushBack(w)

	var expired <-chan time.Time
	if !deadline.IsZero() {
		timer := time.NewTimer(time.Until(deadline))
		defer timer.Stop()
		expired = timer.C
	}

	for {
		mu.Unlock()
		timedOut, cancelled := false, false
		select {
		case <-w.ready:
		case <-expired:
			timedOut = true
		case <-ctx.Done():
			cancelled = true
		}
		mu.Lock()

		if w.granted {
			mu.Unlock()
			return true, nil
		}
		if !timedOut && !cancelled {
			if grab(true) {
				mu.Unlock()
				return true, nil
			}
			q.pushFront(w)
			continue
		}

		woken := !q.remove(w)
		if timedOut && grab(woken) {
			mu.Unlock()
			return true, nil
		}
		// Leaving may unblock whoever queued behind us.
		wake()
		mu.Unlock()
		if cancelled {
			return false, ctx.Err()
		}
		return false, nil
	}
}

// Deadline converts a relative timeout into a Wait deadline. A negative
// timeout means wait forever.
func Deadline(timeout time.Duration) time.Time {
	if timeout < 0 {
		return time.Time{}
	}
	return time.Now().Add(timeout)
}
