// Package queue provides a FIFO queue for passing items between host
// threads.
//
// A queue is bounded when created with a positive maxsize and unbounded
// otherwise. Blocking Put and Get park with the host runtime lock released
// (see package bridge); the Nowait variants never wait. A Put or Get that
// times out reports ErrFull or ErrEmpty, the same errors the Nowait variants
// use, while cancellation of the context reports ctx.Err().
//
// Qsize, Empty and Full are snapshots that may be stale by the time the
// caller acts on them.
package queue

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/yndnr/syncx-go/internal/park"
	"github.com/yndnr/syncx-go/pkg/bridge"
	"github.com/yndnr/syncx-go/pkg/host"
	"github.com/yndnr/syncx-go/pkg/syncerr"
)

var (
	// ErrEmpty is returned by Get when no item became available.
	ErrEmpty = syncerr.New("SX-QUEUE-0001", syncerr.KindEmpty, "queue is empty")

	// ErrFull is returned by Put when no slot became available.
	ErrFull = syncerr.New("SX-QUEUE-0002", syncerr.KindFull, "queue is full")

	// ErrInvalidTimeout is returned by TimeoutSeconds for NaN, infinite or
	// negative values.
	ErrInvalidTimeout = syncerr.New("SX-QUEUE-0003", syncerr.KindValue, "invalid timeout")
)

// Option configures a blocking Put or Get.
type Option func(*waitOptions)

type waitOptions struct {
	blocking bool
	bounded  bool
	timeout  time.Duration
}

// NonBlocking makes the operation a single attempt.
func NonBlocking() Option {
	return func(o *waitOptions) { o.blocking = false }
}

// WithTimeout bounds the wait. Negative durations are treated as zero.
func WithTimeout(d time.Duration) Option {
	return func(o *waitOptions) {
		o.bounded = true
		o.timeout = max(d, 0)
	}
}

// TimeoutSeconds converts a host-supplied timeout in seconds into an Option.
// Timeouts too large to represent wait forever.
func TimeoutSeconds(secs float64) (Option, error) {
	switch {
	case math.IsNaN(secs) || math.IsInf(secs, 0):
		return nil, ErrInvalidTimeout.WithDetails("timeout must be finite")
	case secs < 0:
		return nil, ErrInvalidTimeout.WithDetails("timeout must be >= 0")
	case secs >= float64(math.MaxInt64)/float64(time.Second):
		return func(o *waitOptions) { o.bounded = false }, nil
	}
	return WithTimeout(time.Duration(math.Round(secs * float64(time.Second)))), nil
}

// Queue is a FIFO queue safe for concurrent use. Items implementing
// host.RefCounted are retained while queued; Get hands the queue's
// reference to the caller.
type Queue[T any] struct {
	mu      sync.Mutex
	items   []T
	head    int
	size    int
	maxsize int
	getters park.Queue
	putters park.Queue
}

// New creates a queue holding at most maxsize items, or any number of items
// when maxsize <= 0.
func New[T any](maxsize int) *Queue[T] {
	q := &Queue[T]{maxsize: max(maxsize, 0)}
	if q.maxsize > 0 {
		q.items = make([]T, q.maxsize)
	}
	return q
}

func (q *Queue[T]) fullLocked() bool {
	return q.maxsize > 0 && q.size >= q.maxsize
}

// pushLocked appends item if there is room. The queue takes over a
// reference the caller already holds.
func (q *Queue[T]) pushLocked(item T) bool {
	if q.fullLocked() {
		return false
	}
	if q.size == len(q.items) {
		q.grow()
	}
	q.items[(q.head+q.size)%len(q.items)] = item
	q.size++
	q.getters.WakeFront()
	return true
}

func (q *Queue[T]) grow() {
	items := make([]T, max(2*len(q.items), 8))
	for i := 0; i < q.size; i++ {
		items[i] = q.items[(q.head+i)%len(q.items)]
	}
	q.items = items
	q.head = 0
}

// popLocked removes the oldest item if there is one.
func (q *Queue[T]) popLocked() (T, bool) {
	var zero T
	if q.size == 0 {
		return zero, false
	}
	item := q.items[q.head]
	q.items[q.head] = zero
	q.head = (q.head + 1) % len(q.items)
	q.size--
	q.putters.WakeFront()
	return item, true
}

func (q *Queue[T]) wakeGetterLocked() {
	if q.size > 0 {
		q.getters.WakeFront()
	}
}

func (q *Queue[T]) wakePutterLocked() {
	if !q.fullLocked() {
		q.putters.WakeFront()
	}
}

func resolve(opts []Option) waitOptions {
	o := waitOptions{blocking: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o waitOptions) deadline() time.Time {
	if !o.bounded {
		return park.Deadline(-1)
	}
	return park.Deadline(o.timeout)
}

func (q *Queue[T]) tryPush(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pushLocked(item)
}

// PutNowait appends item or returns ErrFull.
func (q *Queue[T]) PutNowait(item T) error {
	host.IncRef(item)
	if !q.tryPush(item) {
		host.DecRef(item)
		return ErrFull
	}
	return nil
}

// GetNowait removes and returns the oldest item or returns ErrEmpty.
func (q *Queue[T]) GetNowait() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	item, ok := q.popLocked()
	if !ok {
		return item, ErrEmpty
	}
	return item, nil
}

// Put appends item, waiting for a free slot as the options allow.
//
// The reference the queue keeps is taken before the runtime lock is
// released, and dropped again after it is reacquired if no slot was found.
func (q *Queue[T]) Put(ctx context.Context, item T, opts ...Option) (err error) {
	host.IncRef(item)
	defer func() {
		if err != nil {
			host.DecRef(item)
		}
	}()
	if q.tryPush(item) {
		return nil
	}
	o := resolve(opts)
	if !o.blocking {
		return ErrFull
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline := o.deadline()
	ok, err := bridge.Block(ctx, "queue.put", func() (bool, error) {
		return park.Wait(ctx, &q.mu, &q.putters, park.Exclusive, deadline,
			func(bool) bool { return q.pushLocked(item) }, q.wakePutterLocked)
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrFull
	}
	return nil
}

// Get removes and returns the oldest item, waiting for one as the options
// allow.
func (q *Queue[T]) Get(ctx context.Context, opts ...Option) (T, error) {
	item, err := q.GetNowait()
	o := resolve(opts)
	if err == nil || !o.blocking {
		return item, err
	}
	if err := ctx.Err(); err != nil {
		return item, err
	}
	deadline := o.deadline()
	ok, err := bridge.Block(ctx, "queue.get", func() (bool, error) {
		return park.Wait(ctx, &q.mu, &q.getters, park.Exclusive, deadline,
			func(bool) bool {
				var got bool
				item, got = q.popLocked()
				return got
			}, q.wakeGetterLocked)
	})
	if err != nil {
		return item, err
	}
	if !ok {
		return item, ErrEmpty
	}
	return item, nil
}

// Qsize returns the number of queued items.
func (q *Queue[T]) Qsize() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Empty reports whether the queue holds no items.
func (q *Queue[T]) Empty() bool {
	return q.Qsize() == 0
}

// Full reports whether a bounded queue has no free slot. An unbounded queue
// is never full.
func (q *Queue[T]) Full() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.fullLocked()
}

// Maxsize returns the capacity, or 0 for an unbounded queue.
func (q *Queue[T]) Maxsize() int {
	return q.maxsize
}
