package shutdown

import (
	"context"
	"errors"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/yndnr/syncx-go/internal/telemetry/logger"
)

func newTestHandler() *Handler {
	return NewHandler(5*time.Second, WithLogger(logger.NewNop()))
}

func TestNewHandler(t *testing.T) {
	h := newTestHandler()
	if h.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", h.timeout)
	}
	if h.done == nil {
		t.Error("done channel should be initialized")
	}
	select {
	case <-h.Done():
		t.Error("Done channel should not be closed initially")
	default:
	}
}

func recordOrder(h *Handler) func() []int {
	var mu sync.Mutex
	var order []int
	for i := 1; i <= 3; i++ {
		h.OnShutdown("hook", func(context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
	}
	return func() []int {
		mu.Lock()
		defer mu.Unlock()
		return append([]int(nil), order...)
	}
}

func TestHandler_Wait_WithSignal(t *testing.T) {
	h := newTestHandler()
	order := recordOrder(h)

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.Wait(context.Background())
	}()

	// Give Wait time to set up signal handler
	time.Sleep(50 * time.Millisecond)
	_ = syscall.Kill(syscall.Getpid(), syscall.SIGINT)

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Wait() returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not complete in time")
	}

	got := order()
	if len(got) != 3 || got[0] != 3 || got[1] != 2 || got[2] != 1 {
		t.Errorf("hooks called in order %v, want [3 2 1]", got)
	}
	select {
	case <-h.Done():
	default:
		t.Error("Done channel should be closed after Wait completes")
	}
}

func TestHandler_Wait_ContextDone(t *testing.T) {
	h := newTestHandler()
	order := recordOrder(h)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := h.Wait(ctx); err != nil {
		t.Errorf("Wait() returned error: %v", err)
	}
	if got := order(); len(got) != 3 {
		t.Errorf("expected 3 hooks called, got %d", len(got))
	}
}

func TestHandler_HookErrors(t *testing.T) {
	h := newTestHandler()
	errA := errors.New("a failed")
	errB := errors.New("b failed")

	var ran []string
	h.OnShutdown("a", func(context.Context) error { ran = append(ran, "a"); return errA })
	h.OnShutdown("ok", func(context.Context) error { ran = append(ran, "ok"); return nil })
	h.OnShutdown("b", func(context.Context) error { ran = append(ran, "b"); return errB })

	err := h.Shutdown()
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Shutdown() = %v, want both hook errors", err)
	}
	if len(ran) != 3 {
		t.Errorf("a failing hook should not stop the rest, ran %v", ran)
	}
}

func TestHandler_ShutdownOnce(t *testing.T) {
	h := newTestHandler()
	calls := 0
	h.OnShutdown("count", func(context.Context) error { calls++; return nil })

	_ = h.Shutdown()
	_ = h.Shutdown()
	if calls != 1 {
		t.Errorf("hook ran %d times, want 1", calls)
	}
	if err := h.Wait(context.Background()); err != nil {
		t.Errorf("Wait() after Shutdown() = %v", err)
	}
}

func TestHandler_HookDeadline(t *testing.T) {
	h := NewHandler(30*time.Millisecond, WithLogger(logger.NewNop()))
	h.OnShutdown("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	start := time.Now()
	err := h.Shutdown()
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Shutdown() = %v, want deadline exceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Error("hook deadline not enforced")
	}
}

func TestHandler_ConcurrentOnShutdown(t *testing.T) {
	h := newTestHandler()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.OnShutdown("noop", func(context.Context) error { return nil })
		}()
	}
	wg.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.hooks) != 10 {
		t.Errorf("expected 10 hooks, got %d", len(h.hooks))
	}
}
