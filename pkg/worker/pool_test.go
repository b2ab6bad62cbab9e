package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_ProcessesWork(t *testing.T) {
	var processed int64
	pool := NewPool(2, 10, func(_ context.Context, n int) error {
		atomic.AddInt64(&processed, int64(n))
		return nil
	})

	require.NoError(t, pool.Start(context.Background()))
	for i := 1; i <= 5; i++ {
		require.NoError(t, pool.Submit(i))
	}
	require.NoError(t, pool.Stop(time.Second))

	assert.Equal(t, int64(15), atomic.LoadInt64(&processed))
	stats := pool.Stats()
	assert.Equal(t, int64(5), stats.Submitted)
	assert.Equal(t, int64(5), stats.Processed)
	assert.Equal(t, int64(0), stats.Failed)
}

func TestPool_SubmitBeforeStart(t *testing.T) {
	pool := NewPool(1, 1, func(context.Context, int) error { return nil })
	assert.ErrorIs(t, pool.Submit(1), ErrPoolNotStarted)
}

func TestPool_QueueFull(t *testing.T) {
	block := make(chan struct{})
	pool := NewPool(1, 1, func(_ context.Context, _ int) error {
		<-block
		return nil
	})
	require.NoError(t, pool.Start(context.Background()))
	defer func() {
		close(block)
		_ = pool.Stop(time.Second)
	}()

	// First item occupies the worker, second fills the queue
	require.NoError(t, pool.Submit(1))
	assert.Eventually(t, func() bool {
		return pool.Stats().QueueDepth == 0
	}, time.Second, time.Millisecond, "worker should pick up the first item")
	require.NoError(t, pool.Submit(2))

	err := pool.Submit(3)
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, int64(1), pool.Stats().Dropped)
}

func TestPool_SubmitWaitBlocksUntilSlotFrees(t *testing.T) {
	release := make(chan struct{})
	pool := NewPool(1, 1, func(_ context.Context, _ int) error {
		<-release
		return nil
	})
	require.NoError(t, pool.Start(context.Background()))

	require.NoError(t, pool.Submit(1))
	assert.Eventually(t, func() bool {
		return pool.Stats().QueueDepth == 0
	}, time.Second, time.Millisecond, "worker should pick up the first item")
	require.NoError(t, pool.Submit(2))

	done := make(chan error, 1)
	go func() {
		done <- pool.SubmitWait(context.Background(), 3)
	}()

	select {
	case <-done:
		t.Fatal("SubmitWait should block while queue is full")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("SubmitWait did not unblock")
	}
	_ = pool.Stop(time.Second)
}

func TestPool_SubmitWaitCancelled(t *testing.T) {
	block := make(chan struct{})
	pool := NewPool(1, 1, func(_ context.Context, _ int) error {
		<-block
		return nil
	})
	require.NoError(t, pool.Start(context.Background()))
	defer func() {
		close(block)
		_ = pool.Stop(time.Second)
	}()

	require.NoError(t, pool.Submit(1))
	assert.Eventually(t, func() bool {
		return pool.Stats().QueueDepth == 0
	}, time.Second, time.Millisecond, "worker should pick up the first item")
	require.NoError(t, pool.Submit(2))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := pool.SubmitWait(ctx, 3)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPool_FailedWorkCounted(t *testing.T) {
	pool := NewPool(1, 10, func(_ context.Context, n int) error {
		if n%2 == 0 {
			return errors.New("even numbers fail")
		}
		return nil
	})
	require.NoError(t, pool.Start(context.Background()))
	for i := 1; i <= 4; i++ {
		require.NoError(t, pool.Submit(i))
	}
	require.NoError(t, pool.Stop(time.Second))

	stats := pool.Stats()
	assert.Equal(t, int64(4), stats.Processed)
	assert.Equal(t, int64(2), stats.Failed)
}

func TestPool_DoubleStart(t *testing.T) {
	pool := NewPool(1, 1, func(context.Context, int) error { return nil })
	require.NoError(t, pool.Start(context.Background()))
	assert.ErrorIs(t, pool.Start(context.Background()), ErrPoolAlreadyStarted)
	_ = pool.Stop(time.Second)
}

func TestPool_NilProcessorPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewPool[int](1, 1, nil)
	})
}
