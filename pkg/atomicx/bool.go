package atomicx

import (
	"context"
	"sync/atomic"

	"github.com/yndnr/syncx-go/pkg/bridge"
)

// Bool is an atomic boolean.
type Bool struct {
	v atomic.Bool
}

// NewBool returns a cell holding v.
func NewBool(v bool) *Bool {
	b := &Bool{}
	b.v.Store(v)
	return b
}

func (b *Bool) Load() bool       { return b.v.Load() }
func (b *Bool) Store(v bool)     { b.v.Store(v) }
func (b *Bool) Swap(v bool) bool { return b.v.Swap(v) }

// fetch stores op(current) and returns the prior value.
func (b *Bool) fetch(op func(bool) bool) bool {
	for {
		cur := b.v.Load()
		if b.v.CompareAndSwap(cur, op(cur)) {
			return cur
		}
	}
}

// FetchAnd stores current && v and returns the prior value.
func (b *Bool) FetchAnd(v bool) bool { return b.fetch(func(c bool) bool { return c && v }) }

// FetchOr stores current || v and returns the prior value.
func (b *Bool) FetchOr(v bool) bool { return b.fetch(func(c bool) bool { return c || v }) }

// FetchXor stores current != v and returns the prior value.
func (b *Bool) FetchXor(v bool) bool { return b.fetch(func(c bool) bool { return c != v }) }

// FetchNand stores !(current && v) and returns the prior value.
func (b *Bool) FetchNand(v bool) bool { return b.fetch(func(c bool) bool { return !(c && v) }) }

// Flip negates the value and returns the new value.
func (b *Bool) Flip() bool { return !b.fetch(func(c bool) bool { return !c }) }

// CompareExchange stores next if the cell holds expected. It returns whether
// the exchange happened and the value observed.
func (b *Bool) CompareExchange(expected, next bool) (bool, bool) {
	if b.v.CompareAndSwap(expected, next) {
		return true, expected
	}
	return false, !expected
}

// Update stores fn(current) and returns the stored value. fn is retried when
// another writer got in first. An error from fn aborts the update.
func (b *Bool) Update(ctx context.Context, fn func(bool) (bool, error)) (bool, error) {
	for {
		cur := b.v.Load()
		next, err := bridge.Call(ctx, "bool.update", func() (bool, error) { return fn(cur) })
		if err != nil {
			return cur, err
		}
		if b.v.CompareAndSwap(cur, next) {
			return next, nil
		}
	}
}

func (b *Bool) String() string {
	v := "False"
	if b.Load() {
		v = "True"
	}
	return "AtomicBool(value=" + v + ")"
}
