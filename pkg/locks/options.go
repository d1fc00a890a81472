package locks

import (
	"context"
	"math"
	"time"

	"github.com/yndnr/syncx-go/internal/park"
	"github.com/yndnr/syncx-go/pkg/bridge"
)

// AcquireOption configures a blocking acquisition.
type AcquireOption func(*acquireOptions)

type acquireOptions struct {
	blocking bool
	bounded  bool
	timeout  time.Duration
}

// NonBlocking makes the acquisition a single attempt.
func NonBlocking() AcquireOption {
	return func(o *acquireOptions) { o.blocking = false }
}

// WithTimeout bounds the wait. A negative d gives up after the first attempt.
func WithTimeout(d time.Duration) AcquireOption {
	return func(o *acquireOptions) {
		o.bounded = true
		o.timeout = d
	}
}

// WithTimeoutSeconds bounds the wait by a host-supplied number of seconds.
// Negative values give up after the first attempt; NaN, infinities and values
// beyond the largest representable duration wait forever.
func WithTimeoutSeconds(secs float64) AcquireOption {
	switch {
	case math.Signbit(secs) && !math.IsNaN(secs):
		return WithTimeout(-1)
	case math.IsNaN(secs) || math.IsInf(secs, 0) || secs >= float64(math.MaxInt64)/float64(time.Second):
		return func(o *acquireOptions) { o.bounded = false }
	default:
		return WithTimeout(time.Duration(secs * float64(time.Second)))
	}
}

func resolve(opts []AcquireOption) acquireOptions {
	o := acquireOptions{blocking: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o acquireOptions) tryOnly() bool {
	return !o.blocking || (o.bounded && o.timeout < 0)
}

// deadline is only consulted after tryOnly, so a bounded timeout is never
// negative here.
func (o acquireOptions) deadline() time.Time {
	if !o.bounded {
		return park.Deadline(-1)
	}
	return park.Deadline(o.timeout)
}

// acquire tries once, then parks through the bridge unless the options
// forbid waiting.
func acquire(ctx context.Context, op string, o acquireOptions, try func() bool, wait func(deadline time.Time) (bool, error)) (bool, error) {
	if try() {
		return true, nil
	}
	if o.tryOnly() {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	deadline := o.deadline()
	return bridge.Block(ctx, op, func() (bool, error) { return wait(deadline) })
}
