package atomicx

import (
	"context"
	"math"
	"strconv"
	"sync/atomic"

	"github.com/yndnr/syncx-go/pkg/bridge"
)

// Float is an atomic float64 stored as its IEEE-754 bits.
type Float struct {
	bits atomic.Uint64
}

// NewFloat returns a cell holding v.
func NewFloat(v float64) *Float {
	f := &Float{}
	f.Store(v)
	return f
}

func (f *Float) Load() float64   { return math.Float64frombits(f.bits.Load()) }
func (f *Float) Store(v float64) { f.bits.Store(math.Float64bits(v)) }

func (f *Float) Swap(v float64) float64 {
	return math.Float64frombits(f.bits.Swap(math.Float64bits(v)))
}

// apply stores op(current) and returns the new value.
func (f *Float) apply(op func(float64) float64) float64 {
	for {
		cur := f.bits.Load()
		next := op(math.Float64frombits(cur))
		if f.bits.CompareAndSwap(cur, math.Float64bits(next)) {
			return next
		}
	}
}

// Add adds v and returns the new value.
func (f *Float) Add(v float64) float64 {
	return f.apply(func(c float64) float64 { return c + v })
}

// Sub subtracts v and returns the new value.
func (f *Float) Sub(v float64) float64 {
	return f.apply(func(c float64) float64 { return c - v })
}

// Mul multiplies by v and returns the new value.
func (f *Float) Mul(v float64) float64 {
	return f.apply(func(c float64) float64 { return c * v })
}

// Div divides by v and returns the new value. Both zeros are rejected.
func (f *Float) Div(v float64) (float64, error) {
	if v == 0 {
		return f.Load(), ErrDivisionByZero
	}
	return f.apply(func(c float64) float64 { return c / v }), nil
}

func (f *Float) Inc() float64 { return f.Add(1) }
func (f *Float) Dec() float64 { return f.Sub(1) }

// FetchMax stores max(current, v) and returns the prior value. A NaN argument
// never becomes the stored value; a stored NaN is replaced by any number.
func (f *Float) FetchMax(v float64) float64 {
	return f.fetchExtremum(v, func(cur float64) bool { return v > cur })
}

// FetchMin stores min(current, v) and returns the prior value, with the same
// NaN rules as FetchMax.
func (f *Float) FetchMin(v float64) float64 {
	return f.fetchExtremum(v, func(cur float64) bool { return v < cur })
}

func (f *Float) fetchExtremum(v float64, better func(cur float64) bool) float64 {
	for {
		bits := f.bits.Load()
		cur := math.Float64frombits(bits)
		if math.IsNaN(v) || (!math.IsNaN(cur) && !better(cur)) {
			return cur
		}
		if f.bits.CompareAndSwap(bits, math.Float64bits(v)) {
			return cur
		}
	}
}

// CompareExchange stores next if the cell holds exactly expected, bit for
// bit. It returns whether the exchange happened and the value observed.
func (f *Float) CompareExchange(expected, next float64) (bool, float64) {
	eb, nb := math.Float64bits(expected), math.Float64bits(next)
	for {
		if f.bits.CompareAndSwap(eb, nb) {
			return true, expected
		}
		cur := f.bits.Load()
		if cur != eb {
			return false, math.Float64frombits(cur)
		}
	}
}

// Update stores fn(current) and returns the stored value. fn is retried when
// another writer got in first. An error from fn aborts the update.
func (f *Float) Update(ctx context.Context, fn func(float64) (float64, error)) (float64, error) {
	for {
		bits := f.bits.Load()
		cur := math.Float64frombits(bits)
		next, err := bridge.Call(ctx, "float.update", func() (float64, error) { return fn(cur) })
		if err != nil {
			return cur, err
		}
		if f.bits.CompareAndSwap(bits, math.Float64bits(next)) {
			return next, nil
		}
	}
}

func (f *Float) String() string {
	return "AtomicFloat(value=" + strconv.FormatFloat(f.Load(), 'g', -1, 64) + ")"
}
