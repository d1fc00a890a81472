// Package host describes the object surface a host runtime exposes to the
// syncx primitives.
//
// The toolkit never inspects host values beyond these capabilities: hashing,
// value equality, identity and reference counting. A binding adapts its own
// object model to Object (and optionally RefCounted); plain Go values work
// with the comparable-key constructors of the collections and need none of it.
package host

import (
	"errors"
	"reflect"

	"github.com/yndnr/syncx-go/pkg/syncerr"
)

// ErrUnhashable is returned when a host object cannot produce a hash.
var ErrUnhashable = syncerr.New("SX-HOST-0001", syncerr.KindType, "unhashable object")

// Object is a value owned by the host runtime.
//
// Hash and Equal call back into host code and may fail; errors propagate to
// the caller of the toolkit operation unchanged.
type Object interface {
	Hash() (uint64, error)
	Equal(other Object) (bool, error)
}

// RefCounted is implemented by objects whose lifetime the host tracks with
// strong references. Containers retain what they store and release what they
// evict.
type RefCounted interface {
	IncRef()
	DecRef()
}

// IncRef retains v when it is reference counted.
func IncRef(v any) {
	if rc, ok := v.(RefCounted); ok && !isNil(v) {
		rc.IncRef()
	}
}

// DecRef releases v when it is reference counted.
func DecRef(v any) {
	if rc, ok := v.(RefCounted); ok && !isNil(v) {
		rc.DecRef()
	}
}

// Same reports whether a and b are the identical host object.
func Same(a, b Object) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// Equal reports identity-or-equality, the comparison host containers use.
func Equal(a, b Object) (bool, error) {
	if Same(a, b) {
		return true, nil
	}
	if a == nil || b == nil {
		return false, nil
	}
	return a.Equal(b)
}

// Hash returns the hash of obj, mapping a nil object to ErrUnhashable.
func Hash(obj Object) (uint64, error) {
	if obj == nil {
		return 0, ErrUnhashable.WithDetails("nil object")
	}
	h, err := obj.Hash()
	if err != nil {
		if errors.Is(err, ErrUnhashable) {
			return 0, err
		}
		return 0, ErrUnhashable.Wrap(err)
	}
	return h, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
