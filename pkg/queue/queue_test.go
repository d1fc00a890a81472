package queue

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/syncx-go/pkg/bridge"
	"github.com/yndnr/syncx-go/pkg/host"
)

func TestQueue_RoundTripPreservesIdentity(t *testing.T) {
	q := New[host.Object](0)
	box := host.NewBox("sentinel")

	require.NoError(t, q.Put(context.Background(), box))
	assert.Equal(t, 1, q.Qsize())
	assert.False(t, q.Empty())
	assert.Equal(t, int64(2), box.Refs(), "queued items are retained")

	got, err := q.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, box, got)
	assert.True(t, q.Empty())
	assert.Equal(t, int64(2), box.Refs(), "get hands the queue's reference over")
}

func TestQueue_FullAndEmpty(t *testing.T) {
	q := New[string](1)
	require.NoError(t, q.Put(context.Background(), "alpha"))
	assert.True(t, q.Full())
	assert.ErrorIs(t, q.PutNowait("beta"), ErrFull)
	assert.ErrorIs(t, q.Put(context.Background(), "beta", NonBlocking()), ErrFull)

	v, err := q.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alpha", v)
	_, err = q.GetNowait()
	assert.ErrorIs(t, err, ErrEmpty)
	_, err = q.Get(context.Background(), NonBlocking())
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestQueue_Timeouts(t *testing.T) {
	q := New[string](1)
	require.NoError(t, q.PutNowait("held"))

	start := time.Now()
	assert.ErrorIs(t, q.Put(context.Background(), "blocked", WithTimeout(50*time.Millisecond)), ErrFull)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)

	v, err := q.GetNowait()
	require.NoError(t, err)
	assert.Equal(t, "held", v)

	opt, err := TimeoutSeconds(0.05)
	require.NoError(t, err)
	start = time.Now()
	_, err = q.Get(context.Background(), opt)
	assert.ErrorIs(t, err, ErrEmpty)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestQueue_Cancel(t *testing.T) {
	q := New[int](0)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := q.Get(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_BlockingPutReleasesRuntime(t *testing.T) {
	rt := bridge.NewSerialized()
	q := New[string](1)
	require.NoError(t, q.PutNowait("seed"))

	completed := make(chan struct{})
	go func() {
		ctx, th := bridge.Attach(context.Background(), rt)
		defer th.Detach()
		_ = q.Put(ctx, "payload")
		close(completed)
	}()

	select {
	case <-completed:
		t.Fatal("put into a full queue returned")
	case <-time.After(50 * time.Millisecond):
	}

	// The producer is parked; this thread can still take the runtime lock.
	ctx, th := bridge.Attach(context.Background(), rt)
	v, err := q.Get(ctx)
	th.Detach()
	require.NoError(t, err)
	assert.Equal(t, "seed", v)

	select {
	case <-completed:
	case <-time.After(time.Second):
		t.Fatal("producer was not woken")
	}
	v, err = q.GetNowait()
	require.NoError(t, err)
	assert.Equal(t, "payload", v)
}

// tracked records whether each reference change ran under the runtime lock.
type tracked struct {
	th      *bridge.Thread
	mu      sync.Mutex
	refs    int
	holding []bool
}

func (t *tracked) record(delta int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refs += delta
	t.holding = append(t.holding, t.th.Holding())
}

func (t *tracked) IncRef() { t.record(1) }
func (t *tracked) DecRef() { t.record(-1) }

func TestQueue_BlockingPutRetainsUnderRuntimeLock(t *testing.T) {
	rt := bridge.NewSerialized()
	q := New[*tracked](1)
	first, second := &tracked{}, &tracked{}

	done := make(chan error, 1)
	go func() {
		ctx, th := bridge.Attach(context.Background(), rt)
		defer th.Detach()
		first.th, second.th = th, th
		if err := q.PutNowait(first); err != nil {
			done <- err
			return
		}
		done <- q.Put(ctx, second)
	}()

	select {
	case err := <-done:
		t.Fatalf("put into a full queue returned: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	got, err := q.GetNowait()
	require.NoError(t, err)
	assert.Same(t, first, got)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("producer was not woken")
	}
	assert.Equal(t, []bool{true}, first.holding)
	assert.Equal(t, []bool{true}, second.holding)
	assert.Equal(t, 1, second.refs, "the queue holds one reference")
}

func TestQueue_FailedPutDropsReferenceUnderRuntimeLock(t *testing.T) {
	rt := bridge.NewSerialized()
	ctx, th := bridge.Attach(context.Background(), rt)
	defer th.Detach()

	q := New[*tracked](1)
	seed, item := &tracked{th: th}, &tracked{th: th}
	require.NoError(t, q.PutNowait(seed))

	assert.ErrorIs(t, q.PutNowait(item), ErrFull)
	assert.ErrorIs(t, q.Put(ctx, item, WithTimeout(20*time.Millisecond)), ErrFull)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, q.Put(cancelled, item), context.Canceled)

	assert.Equal(t, 0, item.refs)
	assert.NotContains(t, item.holding, false)
	assert.Len(t, item.holding, 6)
}

func TestQueue_FIFOAcrossGrowth(t *testing.T) {
	q := New[int](0)
	for i := 0; i < 5; i++ {
		require.NoError(t, q.PutNowait(i))
	}
	for i := 0; i < 3; i++ {
		v, _ := q.GetNowait()
		assert.Equal(t, i, v)
	}
	for i := 5; i < 40; i++ {
		require.NoError(t, q.PutNowait(i))
	}
	for i := 3; i < 40; i++ {
		v, err := q.GetNowait()
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	assert.Zero(t, q.Maxsize())
	assert.False(t, q.Full())
}

func TestQueue_ProducersConsumers(t *testing.T) {
	const producers, perProducer = 4, 250
	q := New[int](8)
	ctx := context.Background()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				assert.NoError(t, q.Put(ctx, p*perProducer+i))
			}
		}()
	}

	seen := make([]bool, producers*perProducer)
	var mu sync.Mutex
	var cg sync.WaitGroup
	for c := 0; c < 3; c++ {
		cg.Add(1)
		go func() {
			defer cg.Done()
			for {
				v, err := q.Get(ctx, WithTimeout(200*time.Millisecond))
				if err != nil {
					return
				}
				mu.Lock()
				assert.False(t, seen[v], "item %d delivered twice", v)
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	cg.Wait()
	for i, ok := range seen {
		assert.True(t, ok, "item %d lost", i)
	}
}

func TestTimeoutSeconds(t *testing.T) {
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -0.1} {
		_, err := TimeoutSeconds(bad)
		assert.ErrorIs(t, err, ErrInvalidTimeout, "%v", bad)
	}

	opt, err := TimeoutSeconds(1e20)
	require.NoError(t, err)
	assert.False(t, resolve([]Option{opt}).bounded, "huge timeouts wait forever")

	opt, err = TimeoutSeconds(1.25)
	require.NoError(t, err)
	o := resolve([]Option{opt})
	assert.True(t, o.bounded)
	assert.Equal(t, 1250*time.Millisecond, o.timeout)
}
