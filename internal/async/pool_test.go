package async

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ctxKey string

func TestPool_DoReturnsTaskResult(t *testing.T) {
	p := NewPool(nil, WithWorkers(2))
	defer p.Shutdown(context.Background())

	boom := errors.New("boom")
	assert.NoError(t, p.Do(context.Background(), "ok", func(context.Context) error { return nil }))
	assert.ErrorIs(t, p.Do(context.Background(), "fail", func(context.Context) error { return boom }), boom)
}

func TestPool_DoPropagatesValuesAndTimeout(t *testing.T) {
	p := NewPool(nil, WithWorkers(1), WithTaskTimeout(20*time.Millisecond))
	defer p.Shutdown(context.Background())

	ctx := context.WithValue(context.Background(), ctxKey("req"), "r-1")
	err := p.Do(ctx, "slow", func(ctx context.Context) error {
		assert.Equal(t, "r-1", ctx.Value(ctxKey("req")))
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPool_PanicBecomesError(t *testing.T) {
	p := NewPool(nil, WithWorkers(1))
	defer p.Shutdown(context.Background())

	err := p.Do(context.Background(), "panics", func(context.Context) error { panic("bad page") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad page")

	assert.NoError(t, p.Do(context.Background(), "after", func(context.Context) error { return nil }))
}

func TestPool_GoOutlivesCaller(t *testing.T) {
	p := NewPool(nil, WithWorkers(1))

	ctx, cancel := context.WithCancel(context.Background())
	var ran atomic.Bool
	require.NoError(t, p.Go(ctx, "background", func(ctx context.Context) error {
		time.Sleep(10 * time.Millisecond)
		if ctx.Err() == nil {
			ran.Store(true)
		}
		return nil
	}))
	cancel()

	p.Shutdown(context.Background())
	assert.True(t, ran.Load())
}

func TestPool_ShutdownDrainsAndRejects(t *testing.T) {
	p := NewPool(nil, WithWorkers(2), WithQueueSize(16))

	var n atomic.Int32
	for i := 0; i < 10; i++ {
		require.NoError(t, p.Go(context.Background(), "count", func(context.Context) error {
			n.Add(1)
			return nil
		}))
	}
	p.Shutdown(context.Background())
	assert.EqualValues(t, 10, n.Load())

	assert.ErrorIs(t, p.Go(context.Background(), "late", func(context.Context) error { return nil }), ErrClosed)
	assert.ErrorIs(t, p.Do(context.Background(), "late", func(context.Context) error { return nil }), ErrClosed)
	p.Shutdown(context.Background())
}

func TestPool_BackpressureHonoursContext(t *testing.T) {
	p := NewPool(nil, WithWorkers(1), WithQueueSize(1))
	release := make(chan struct{})
	defer func() {
		close(release)
		p.Shutdown(context.Background())
	}()

	block := func(context.Context) error { <-release; return nil }
	require.NoError(t, p.Go(context.Background(), "busy", block))
	// wait for the worker to pick up the first task so the queue slot is free
	require.Eventually(t, func() bool { return len(p.ch) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, p.Go(context.Background(), "queued", block))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Go(ctx, "overflow", block)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
