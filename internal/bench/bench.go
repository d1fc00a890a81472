package bench

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/yndnr/syncx-go/internal/telemetry/logger"
	"github.com/yndnr/syncx-go/internal/telemetry/metric"
	"github.com/yndnr/syncx-go/pkg/bridge"
)

// Workload names a benchmark.
type Workload string

const (
	Locks  Workload = "locks"
	RWLock Workload = "rwlock"
	Queue  Workload = "queue"
	Map    Workload = "map"
)

// All lists every workload in the order soak runs them.
var All = []Workload{Locks, RWLock, Queue, Map}

// switchEvery is how many operations a worker performs between voluntary
// releases of the runtime lock.
const switchEvery = 64

// ErrInvariant reports that a primitive broke its guarantee.
var ErrInvariant = errors.New("bench: invariant violated")

// Options shape a run.
type Options struct {
	Runtime bridge.Runtime
	Workers int
	// Ops is the number of operations per worker.
	Ops int
	// Rate caps total operations per second. Zero means unlimited.
	Rate  float64
	Burst int
	// AcquireTimeout bounds each blocking call. Negative waits forever.
	AcquireTimeout time.Duration
	Fair           bool

	MapShards    int
	MapKeys      int
	QueueMaxSize int

	Metrics *metric.Registry
	// Logger defaults to the logger carried by the run's context.
	Logger logger.Logger
	// OnOps is called as workers complete batches of operations.
	OnOps func(n int64)
}

// Result summarizes a run.
type Result struct {
	RunID     string        `json:"run_id" yaml:"run_id" table:"wide"`
	Workload  Workload      `json:"workload" yaml:"workload"`
	Mode      string        `json:"mode" yaml:"mode"`
	Workers   int           `json:"workers" yaml:"workers"`
	Ops       int64         `json:"ops" yaml:"ops"`
	Timeouts  int64         `json:"timeouts" yaml:"timeouts"`
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`
	OpsPerSec float64       `json:"ops_per_sec" yaml:"ops_per_sec"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at" table:"wide"`
}

// TotalOps returns how many operations a run of w performs under o. The
// queue workload counts puts only.
func (o Options) TotalOps(w Workload) int64 {
	if w == Queue {
		return int64(max(o.Workers/2, 1)) * int64(o.Ops)
	}
	return int64(o.Workers) * int64(o.Ops)
}

// ParseWorkload validates a workload name.
func ParseWorkload(s string) (Workload, error) {
	for _, w := range All {
		if string(w) == s {
			return w, nil
		}
	}
	return "", fmt.Errorf("unknown workload %q", s)
}

// Run executes one workload and verifies its invariants.
func Run(ctx context.Context, w Workload, opts Options) (*Result, error) {
	if opts.Runtime == nil {
		opts.Runtime = bridge.NewSerialized()
	}
	if opts.Logger == nil {
		opts.Logger = logger.FromContext(ctx)
	}
	if opts.Workers < 1 || opts.Ops < 1 {
		return nil, fmt.Errorf("bench: workers and ops must be positive")
	}

	var run func(context.Context, *runner) error
	switch w {
	case Locks:
		run = runLocks
	case RWLock:
		run = runRWLock
	case Queue:
		run = runQueue
	case Map:
		run = runMap
	default:
		return nil, fmt.Errorf("unknown workload %q", w)
	}

	r := &runner{opts: opts, id: ulid.Make().String()}
	if opts.Rate > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(opts.Rate), max(opts.Burst, 1))
	}

	mode := "free"
	if opts.Runtime.Serialized() {
		mode = "serialized"
	}
	ctx = logger.WithRunID(ctx, r.id)
	log := opts.Logger.WithContext(ctx).With("workload", string(w), "mode", mode)
	log.Info("workload started", "workers", opts.Workers, "ops", opts.Ops)

	start := time.Now()
	err := run(ctx, r)
	elapsed := time.Since(start)
	if err != nil {
		log.Error("workload failed", "error", err, "elapsed", elapsed)
		return nil, err
	}

	res := &Result{
		RunID:     r.id,
		Workload:  w,
		Mode:      mode,
		Workers:   opts.Workers,
		Ops:       r.ops.Load(),
		Timeouts:  r.timeouts.Load(),
		Elapsed:   elapsed,
		StartedAt: start,
	}
	if secs := elapsed.Seconds(); secs > 0 {
		res.OpsPerSec = float64(res.Ops) / secs
	}
	if m := opts.Metrics; m != nil {
		m.AddWorkloadOps(string(w), int(res.Ops))
		m.ObserveWorkloadDuration(string(w), elapsed)
	}
	log.Info("workload finished",
		"ops", res.Ops,
		"timeouts", res.Timeouts,
		"elapsed", elapsed,
		"ops_per_sec", res.OpsPerSec)
	return res, nil
}

type runner struct {
	opts     Options
	id       string
	limiter  *rate.Limiter
	ops      atomic.Int64
	timeouts atomic.Int64
}

// spawn runs n workers, each attached to the runtime with its own thread
// state. The first error cancels the rest.
func (r *runner) spawn(ctx context.Context, n int, fn func(ctx context.Context, worker int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			wctx, th := bridge.Attach(logger.WithWorker(gctx, i), r.opts.Runtime)
			defer th.Detach()
			return fn(wctx, i)
		})
	}
	return g.Wait()
}

// step is called once per operation. It yields the runtime lock
// periodically, paces the worker and reports progress.
func (r *runner) step(ctx context.Context, done int) error {
	r.ops.Add(1)
	if r.limiter != nil {
		if _, err := bridge.Block(ctx, "bench.pace", func() (bool, error) {
			return true, r.limiter.Wait(ctx)
		}); err != nil {
			return err
		}
	}
	if done%switchEvery == 0 {
		if r.opts.OnOps != nil {
			r.opts.OnOps(switchEvery)
		}
		return yield(ctx)
	}
	return nil
}

// flush reports operations not yet covered by a full batch.
func (r *runner) flush(done int) {
	if rest := done % switchEvery; rest != 0 && r.opts.OnOps != nil {
		r.opts.OnOps(int64(rest))
	}
}

// yield lets other host threads take the runtime lock.
func yield(ctx context.Context) error {
	_, err := bridge.Block(ctx, "bench.yield", func() (bool, error) {
		runtime.Gosched()
		return true, nil
	})
	return err
}

func (r *runner) timedOut() { r.timeouts.Add(1) }

func invariant(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}
