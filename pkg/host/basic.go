package host

import (
	"hash/maphash"
	"math"
	"sync/atomic"
)

var seed = maphash.MakeSeed()

// Int is an immutable integer object.
type Int int64

// Hash implements Object.
func (i Int) Hash() (uint64, error) { return maphash.Comparable(seed, int64(i)), nil }

// Equal implements Object.
func (i Int) Equal(other Object) (bool, error) {
	switch o := other.(type) {
	case Int:
		return i == o, nil
	case Float:
		return o.integral() && o.asInt() == i, nil
	}
	return false, nil
}

// Float is an immutable float object. Integral floats hash like the equal Int.
type Float float64

// Hash implements Object.
func (f Float) Hash() (uint64, error) {
	if f.integral() {
		return f.asInt().Hash()
	}
	return maphash.Comparable(seed, float64(f)), nil
}

// integral reports whether f is a whole number inside the int64 range.
// 2^63 itself is excluded: it rounds from MaxInt64 but does not fit.
func (f Float) integral() bool {
	v := float64(f)
	return v == math.Trunc(v) && v >= math.MinInt64 && v < -math.MinInt64
}

// asInt is only meaningful when f is integral.
func (f Float) asInt() Int { return Int(int64(f)) }

// Equal implements Object.
func (f Float) Equal(other Object) (bool, error) {
	switch o := other.(type) {
	case Float:
		return f == o, nil
	case Int:
		return f.integral() && f.asInt() == o, nil
	}
	return false, nil
}

// Str is an immutable string object.
type Str string

// Hash implements Object.
func (s Str) Hash() (uint64, error) { return maphash.String(seed, string(s)), nil }

// Equal implements Object.
func (s Str) Equal(other Object) (bool, error) {
	o, ok := other.(Str)
	return ok && s == o, nil
}

// Box is a mutable, reference-counted object compared by identity.
// It stands in for arbitrary host instances in tools and tests.
type Box struct {
	Value any
	refs  atomic.Int64
}

// NewBox returns a box holding one strong reference.
func NewBox(v any) *Box {
	b := &Box{Value: v}
	b.refs.Store(1)
	return b
}

// Hash implements Object.
func (b *Box) Hash() (uint64, error) { return maphash.Comparable(seed, b), nil }

// Equal implements Object.
func (b *Box) Equal(other Object) (bool, error) {
	o, ok := other.(*Box)
	return ok && o == b, nil
}

// IncRef implements RefCounted.
func (b *Box) IncRef() { b.refs.Add(1) }

// DecRef implements RefCounted.
func (b *Box) DecRef() { b.refs.Add(-1) }

// Refs returns the current strong reference count.
func (b *Box) Refs() int64 { return b.refs.Load() }

// Unhashable is a list-like object: it compares by value but refuses to hash.
type Unhashable []Object

// Hash implements Object.
func (Unhashable) Hash() (uint64, error) {
	return 0, ErrUnhashable.WithDetails("unhashable type: list")
}

// Equal implements Object.
func (u Unhashable) Equal(other Object) (bool, error) {
	o, ok := other.(Unhashable)
	if !ok || len(o) != len(u) {
		return false, nil
	}
	for i := range u {
		eq, err := Equal(u[i], o[i])
		if err != nil || !eq {
			return false, err
		}
	}
	return true, nil
}
