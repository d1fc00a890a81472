package bridge

import (
	"context"
	"sync"
	"sync/atomic"
)

// Runtime is the host's execution lock.
type Runtime interface {
	// Acquire takes the runtime lock, blocking until it is available.
	Acquire()
	// Release gives the runtime lock up.
	Release()
	// Serialized reports whether host code runs under a global lock at all.
	Serialized() bool
}

// NewSerialized returns a runtime whose host code runs one thread at a time.
func NewSerialized() Runtime {
	return &serialized{}
}

type serialized struct {
	mu sync.Mutex
}

func (s *serialized) Acquire()         { s.mu.Lock() }
func (s *serialized) Release()         { s.mu.Unlock() }
func (s *serialized) Serialized() bool { return true }

// FreeThreaded returns a runtime without a global lock.
func FreeThreaded() Runtime {
	return freeThreaded{}
}

type freeThreaded struct{}

func (freeThreaded) Acquire()         {}
func (freeThreaded) Release()         {}
func (freeThreaded) Serialized() bool { return false }

// threadIDBit marks ids issued to attached threads so they never collide
// with goroutine ids.
const threadIDBit = uint64(1) << 63

var threadSeq atomic.Uint64

// Thread is a host thread state bound to one goroutine.
//
// A Thread must only be used from the goroutine that attached it.
type Thread struct {
	id       uint64
	rt       Runtime
	held     bool
	detached bool
}

type threadKey struct{}

// Attach takes the runtime lock and binds a new thread state to the returned
// context. The caller owns the thread and must Detach it.
func Attach(ctx context.Context, rt Runtime) (context.Context, *Thread) {
	rt.Acquire()
	th := &Thread{
		id:   threadSeq.Add(1) | threadIDBit,
		rt:   rt,
		held: true,
	}
	return context.WithValue(ctx, threadKey{}, th), th
}

// Detach releases the runtime lock for good. Detaching twice is a no-op.
func (t *Thread) Detach() {
	if t.detached {
		return
	}
	t.detached = true
	if t.held {
		t.held = false
		t.rt.Release()
	}
}

// ID returns the thread's identity.
func (t *Thread) ID() uint64 { return t.id }

// Holding reports whether the thread currently holds the runtime lock.
func (t *Thread) Holding() bool { return t.held }

// Runtime returns the runtime the thread is attached to.
func (t *Thread) Runtime() Runtime { return t.rt }

// FromContext returns the thread attached to ctx, or nil.
func FromContext(ctx context.Context) *Thread {
	if ctx == nil {
		return nil
	}
	th, _ := ctx.Value(threadKey{}).(*Thread)
	return th
}

// serializedThread returns the attached thread if waits on ctx must
// coordinate with a global lock.
func serializedThread(ctx context.Context) *Thread {
	th := FromContext(ctx)
	if th == nil || th.detached || !th.rt.Serialized() {
		return nil
	}
	return th
}
