package atomicx

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/yndnr/syncx-go/pkg/bridge"
)

// Int is an atomic int64. Overflow wraps.
type Int struct {
	v atomic.Int64
}

// NewInt returns a cell holding v.
func NewInt(v int64) *Int {
	i := &Int{}
	i.v.Store(v)
	return i
}

func (i *Int) Load() int64        { return i.v.Load() }
func (i *Int) Store(v int64)      { i.v.Store(v) }
func (i *Int) Swap(v int64) int64 { return i.v.Swap(v) }

// Add adds v and returns the new value.
func (i *Int) Add(v int64) int64 { return i.v.Add(v) }

// Sub subtracts v and returns the new value.
func (i *Int) Sub(v int64) int64 { return i.v.Add(-v) }

// Inc adds one and returns the new value.
func (i *Int) Inc() int64 { return i.v.Add(1) }

// Dec subtracts one and returns the new value.
func (i *Int) Dec() int64 { return i.v.Add(-1) }

// Mul multiplies by v and returns the new value.
func (i *Int) Mul(v int64) int64 {
	for {
		cur := i.v.Load()
		next := cur * v
		if i.v.CompareAndSwap(cur, next) {
			return next
		}
	}
}

// Div divides by v, truncating toward zero, and returns the new value.
func (i *Int) Div(v int64) (int64, error) {
	if v == 0 {
		return i.v.Load(), ErrDivisionByZero
	}
	for {
		cur := i.v.Load()
		next := cur / v
		if i.v.CompareAndSwap(cur, next) {
			return next, nil
		}
	}
}

// FetchAnd stores the bitwise AND with v and returns the prior value.
func (i *Int) FetchAnd(v int64) int64 { return i.v.And(v) }

// FetchOr stores the bitwise OR with v and returns the prior value.
func (i *Int) FetchOr(v int64) int64 { return i.v.Or(v) }

// FetchXor stores the bitwise XOR with v and returns the prior value.
func (i *Int) FetchXor(v int64) int64 {
	for {
		cur := i.v.Load()
		if i.v.CompareAndSwap(cur, cur^v) {
			return cur
		}
	}
}

// FetchMax stores max(current, v) and returns the prior value.
func (i *Int) FetchMax(v int64) int64 {
	for {
		cur := i.v.Load()
		if v <= cur || i.v.CompareAndSwap(cur, v) {
			return cur
		}
	}
}

// FetchMin stores min(current, v) and returns the prior value.
func (i *Int) FetchMin(v int64) int64 {
	for {
		cur := i.v.Load()
		if v >= cur || i.v.CompareAndSwap(cur, v) {
			return cur
		}
	}
}

// CompareExchange stores next if the cell holds expected. It returns whether
// the exchange happened and the value observed.
func (i *Int) CompareExchange(expected, next int64) (bool, int64) {
	for {
		if i.v.CompareAndSwap(expected, next) {
			return true, expected
		}
		cur := i.v.Load()
		if cur != expected {
			return false, cur
		}
	}
}

// Update stores fn(current) and returns the stored value. fn is retried when
// another writer got in first. An error from fn aborts the update.
func (i *Int) Update(ctx context.Context, fn func(int64) (int64, error)) (int64, error) {
	for {
		cur := i.v.Load()
		next, err := bridge.Call(ctx, "int.update", func() (int64, error) { return fn(cur) })
		if err != nil {
			return cur, err
		}
		if i.v.CompareAndSwap(cur, next) {
			return next, nil
		}
	}
}

func (i *Int) String() string { return "AtomicInt(value=" + strconv.FormatInt(i.Load(), 10) + ")" }
