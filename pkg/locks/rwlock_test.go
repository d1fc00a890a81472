package locks

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queued(l *RWLock) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.waiters.Len()
}

func waitQueued(t *testing.T, l *RWLock, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return queued(l) == n }, 2*time.Second, time.Millisecond)
}

func TestRWLock_SharedAndExclusive(t *testing.T) {
	l := NewRWLock()
	assert.True(t, l.TryAcquireRead())
	assert.True(t, l.TryAcquireRead())
	assert.False(t, l.TryAcquireWrite())
	assert.Equal(t, 2, l.Readers())
	assert.True(t, l.IsLocked())
	assert.False(t, l.IsWriteLocked())

	require.NoError(t, l.ReadRelease())
	require.NoError(t, l.ReadRelease())
	assert.ErrorIs(t, l.ReadRelease(), ErrNotLocked)

	assert.True(t, l.TryAcquireWrite())
	assert.False(t, l.TryAcquireRead())
	assert.True(t, l.IsWriteLocked())
	require.NoError(t, l.WriteRelease())
	assert.ErrorIs(t, l.WriteRelease(), ErrNotLocked)
	assert.False(t, l.IsLocked())
}

func TestRWLock_NonBlockingWriteWhileRead(t *testing.T) {
	l := NewRWLock()
	g, err := l.ReadGuard(context.Background())
	require.NoError(t, err)
	ok, err := l.AcquireWrite(context.Background(), NonBlocking())
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = l.AcquireWrite(context.Background(), WithTimeout(20*time.Millisecond))
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, g.Release())
}

func TestRWLock_WriterPreference(t *testing.T) {
	l := NewRWLock()
	require.True(t, l.TryAcquireRead())

	writerDone := make(chan struct{})
	go func() {
		_, _ = l.AcquireWrite(context.Background())
		close(writerDone)
	}()
	waitQueued(t, l, 1)

	assert.False(t, l.TryAcquireRead(), "queued writer blocks new readers")
	require.NoError(t, l.ReadRelease())
	<-writerDone
	assert.True(t, l.IsWriteLocked())
	require.NoError(t, l.WriteRelease())
}

func TestRWLock_WriterTimeoutLetsReadersIn(t *testing.T) {
	l := NewRWLock()
	require.True(t, l.TryAcquireRead())

	go func() {
		_, _ = l.AcquireWrite(context.Background(), WithTimeout(30*time.Millisecond))
	}()
	waitQueued(t, l, 1)

	readerDone := make(chan bool)
	go func() {
		ok, _ := l.AcquireRead(context.Background(), WithTimeout(5*time.Second))
		readerDone <- ok
	}()
	assert.True(t, <-readerDone, "reader proceeds once the writer gives up")
	assert.Equal(t, 2, l.Readers())
}

func TestRWLock_Downgrade(t *testing.T) {
	l := NewRWLock()
	w, err := l.WriteGuard(context.Background())
	require.NoError(t, err)

	readerIn := make(chan struct{})
	go func() {
		g, _ := l.ReadGuard(context.Background())
		close(readerIn)
		_ = g.Release()
	}()
	waitQueued(t, l, 1)

	r, err := w.Downgrade()
	require.NoError(t, err)
	<-readerIn
	assert.False(t, l.IsWriteLocked())
	assert.False(t, l.TryAcquireWrite(), "downgraded hold still excludes writers")

	_, err = w.Downgrade()
	assert.ErrorIs(t, err, ErrAlreadyReleased)
	assert.ErrorIs(t, w.Release(), ErrAlreadyReleased)

	require.NoError(t, r.Release())
	assert.Eventually(t, func() bool { return !l.IsLocked() }, time.Second, time.Millisecond)
}

func TestRWLock_WriteReleaseFairGrantsReaders(t *testing.T) {
	l := NewRWLock()
	w, err := l.WriteGuard(context.Background())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = l.AcquireRead(context.Background())
		}()
	}
	waitQueued(t, l, 3)

	require.NoError(t, w.ReleaseFair())
	wg.Wait()
	assert.Equal(t, 3, l.Readers())
}

func TestRWLock_BumpExclusive(t *testing.T) {
	l := NewRWLock()
	require.True(t, l.TryAcquireWrite())
	require.NoError(t, l.BumpExclusive(context.Background()), "no waiters: no-op")
	assert.True(t, l.IsWriteLocked())

	var order []string
	var mu sync.Mutex
	record := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, s)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = l.Write(context.Background(), func() error {
			record("waiter")
			return nil
		})
	}()
	waitQueued(t, l, 1)

	require.NoError(t, l.BumpExclusive(context.Background()))
	record("bumper")
	require.NoError(t, l.WriteRelease())
	<-done
	assert.Equal(t, []string{"waiter", "bumper"}, order)
}

func TestRWLock_BumpShared(t *testing.T) {
	l := NewRWLock()
	require.True(t, l.TryAcquireRead())

	var wrote atomic.Bool
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = l.Write(context.Background(), func() error {
			wrote.Store(true)
			return nil
		})
	}()
	waitQueued(t, l, 1)

	require.NoError(t, l.BumpShared(context.Background()))
	assert.True(t, wrote.Load(), "writer ran before the shared hold resumed")
	assert.Equal(t, 1, l.Readers())
	require.NoError(t, l.ReadRelease())
	<-done
}

func TestReadGuard_Bump(t *testing.T) {
	l := NewRWLock()
	other := l.TryReadGuard()
	require.NotNil(t, other)
	g := l.TryReadGuard()
	require.NotNil(t, g)

	var wrote atomic.Bool
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = l.Write(context.Background(), func() error {
			wrote.Store(true)
			return nil
		})
	}()
	waitQueued(t, l, 1)

	require.NoError(t, g.Release())
	assert.ErrorIs(t, g.Bump(context.Background()), ErrAlreadyReleased)
	assert.Equal(t, 1, l.Readers(), "a spent guard leaves other readers' holds alone")
	assert.False(t, wrote.Load())

	require.NoError(t, other.Bump(context.Background()))
	assert.True(t, wrote.Load(), "writer ran before the shared hold resumed")
	assert.Equal(t, 1, l.Readers())
	require.NoError(t, other.Release())
	<-done
}

func TestWriteGuard_Bump(t *testing.T) {
	l := NewRWLock()
	g := l.TryWriteGuard()
	require.NotNil(t, g)
	require.NoError(t, g.Bump(context.Background()), "no waiters: no-op")
	assert.True(t, l.IsWriteLocked())
	require.NoError(t, g.Release())
	assert.ErrorIs(t, g.Bump(context.Background()), ErrAlreadyReleased)
	assert.False(t, l.IsLocked())
}

func TestRWLock_Exclusion(t *testing.T) {
	l := NewRWLock()
	var readers, writers atomic.Int32
	var wg sync.WaitGroup
	ctx := context.Background()
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < 100; n++ {
				if (i+n)%4 == 0 {
					_ = l.Write(ctx, func() error {
						assert.Equal(t, int32(1), writers.Add(1))
						assert.Zero(t, readers.Load())
						writers.Add(-1)
						return nil
					})
					continue
				}
				_ = l.Read(ctx, func() error {
					readers.Add(1)
					assert.Zero(t, writers.Load())
					readers.Add(-1)
					return nil
				})
			}
		}()
	}
	wg.Wait()
	assert.False(t, l.IsLocked())
}
