// Package atomicx provides atomic cells for integers, floats, booleans and
// host object references.
//
// All operations are sequentially consistent. Arithmetic that the hardware
// cannot do in one instruction (multiplication, division, float addition,
// min/max) runs as a compare-and-swap loop, so concurrent updates are never
// lost. Update takes a caller function and retries it until its result is
// stored without interference; the function runs with the host runtime lock
// held (see package bridge) and may run more than once.
//
// The zero value of every cell is ready to use and holds the zero value of
// its type (nil for Reference).
package atomicx

import "github.com/yndnr/syncx-go/pkg/syncerr"

// ErrDivisionByZero is returned by Div when the divisor is zero. The cell is
// left unchanged.
var ErrDivisionByZero = syncerr.New("SX-ATOM-0001", syncerr.KindArithmetic, "division by zero")
