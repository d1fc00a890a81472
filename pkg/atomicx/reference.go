package atomicx

import (
	"context"
	"fmt"
	"sync"

	"github.com/yndnr/syncx-go/pkg/bridge"
	"github.com/yndnr/syncx-go/pkg/host"
)

// Reference is an atomic cell holding one strong reference to a host object.
//
// Objects handed out by Get are new strong references owned by the caller.
// Exchange moves the cell's reference to the caller. Close drops it.
type Reference struct {
	mu      sync.Mutex
	obj     host.Object
	version uint64
}

// NewReference returns a cell holding a new reference to obj.
func NewReference(obj host.Object) *Reference {
	host.IncRef(obj)
	return &Reference{obj: obj}
}

// Get returns a new reference to the current object.
func (r *Reference) Get() host.Object {
	r.mu.Lock()
	defer r.mu.Unlock()
	host.IncRef(r.obj)
	return r.obj
}

// Set replaces the current object with obj.
func (r *Reference) Set(obj host.Object) {
	host.DecRef(r.Exchange(obj))
}

// Exchange replaces the current object with obj and returns the previous one.
func (r *Reference) Exchange(obj host.Object) host.Object {
	host.IncRef(obj)
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.obj
	r.obj = obj
	r.version++
	return prev
}

// snapshot returns a new reference to the current object and the version it
// was read at.
func (r *Reference) snapshot() (host.Object, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	host.IncRef(r.obj)
	return r.obj, r.version
}

// commit stores obj if nothing was stored since version.
func (r *Reference) commit(version uint64, obj host.Object) (host.Object, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.version != version {
		return nil, false
	}
	host.IncRef(obj)
	prev := r.obj
	r.obj = obj
	r.version++
	return prev, true
}

// CompareExchange stores next if the current object is expected, by identity
// or else by host equality. Equality runs with the runtime lock held and its
// errors propagate. If another writer replaces the object while equality is
// being evaluated, the comparison is repeated against the new object.
func (r *Reference) CompareExchange(ctx context.Context, expected, next host.Object) (bool, error) {
	for {
		cur, version := r.snapshot()
		eq := host.Same(cur, expected)
		if !eq && cur != nil && expected != nil {
			var err error
			eq, err = bridge.Call(ctx, "reference.eq", func() (bool, error) { return cur.Equal(expected) })
			if err != nil {
				host.DecRef(cur)
				return false, err
			}
		}
		host.DecRef(cur)
		if !eq {
			return false, nil
		}
		if prev, ok := r.commit(version, next); ok {
			host.DecRef(prev)
			return true, nil
		}
	}
}

// Update stores fn(current) and returns a new reference to the stored
// object. fn is retried when another writer got in first. An error from fn
// aborts the update.
func (r *Reference) Update(ctx context.Context, fn func(host.Object) (host.Object, error)) (host.Object, error) {
	for {
		cur, version := r.snapshot()
		next, err := bridge.Call(ctx, "reference.update", func() (host.Object, error) { return fn(cur) })
		host.DecRef(cur)
		if err != nil {
			return nil, err
		}
		if prev, ok := r.commit(version, next); ok {
			host.DecRef(prev)
			host.IncRef(next)
			return next, nil
		}
	}
}

// Close drops the cell's reference. Get returns nil afterwards.
func (r *Reference) Close() {
	r.Set(nil)
}

func (r *Reference) String() string {
	obj := r.Get()
	defer host.DecRef(obj)
	return fmt.Sprintf("AtomicReference(value=%v)", obj)
}
