package logger

import "context"

// contextKey is a type for context keys to avoid collisions.
type contextKey string

const (
	loggerKey contextKey = "syncx.logger"
	runIDKey  contextKey = "syncx.run_id"
	workerKey contextKey = "syncx.worker"
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts the logger from context.
// Returns the default logger if none is set.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithRunID tags the context with the id of a workload run.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFromContext extracts the run id from context.
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// WithWorker tags the context with a worker index.
func WithWorker(ctx context.Context, worker int) context.Context {
	return context.WithValue(ctx, workerKey, worker)
}

// WorkerFromContext extracts the worker index, or -1.
func WorkerFromContext(ctx context.Context) int {
	if w, ok := ctx.Value(workerKey).(int); ok {
		return w
	}
	return -1
}

// L returns the context's logger bound to ctx.
func L(ctx context.Context) Logger {
	return FromContext(ctx).WithContext(ctx)
}

func contextArgs(ctx context.Context) []any {
	var args []any
	if id := RunIDFromContext(ctx); id != "" {
		args = append(args, "run_id", id)
	}
	if w := WorkerFromContext(ctx); w >= 0 {
		args = append(args, "worker", w)
	}
	return args
}
