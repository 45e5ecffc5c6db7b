package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Limiter = (*Pacer)(nil)
	_ Limiter = (*LoginWindow)(nil)
)

func TestPacerFirstCallImmediate(t *testing.T) {
	p := NewPacer(60)

	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestPacerSpacesCalls(t *testing.T) {
	// 1200/minute → one slot every 50ms.
	p := NewPacer(1200)

	ctx := context.Background()
	start := time.Now()
	require.NoError(t, p.Wait(ctx))
	require.NoError(t, p.Wait(ctx))
	require.NoError(t, p.Wait(ctx))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 80*time.Millisecond, "calls two and three must each wait one interval")
}

func TestPacerSpreadsBurst(t *testing.T) {
	p := NewPacer(1200)

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Wait(context.Background())
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond,
		"concurrent callers are spread across consecutive slots")
}

func TestPacerCancellation(t *testing.T) {
	p := NewPacer(1) // one slot per minute
	require.NoError(t, p.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPacerReset(t *testing.T) {
	p := NewPacer(1)
	require.NoError(t, p.Wait(context.Background()))

	p.Reset()

	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestLoginWindowAllowsBudgetImmediately(t *testing.T) {
	w := NewLoginWindow(3, time.Hour)

	ctx := context.Background()
	start := time.Now()
	require.NoError(t, w.Wait(ctx))
	require.NoError(t, w.Wait(ctx))
	require.NoError(t, w.Wait(ctx))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestLoginWindowBlocksUntilOldestExpires(t *testing.T) {
	w := NewLoginWindow(1, 80*time.Millisecond)

	ctx := context.Background()
	require.NoError(t, w.Wait(ctx))

	start := time.Now()
	require.NoError(t, w.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond,
		"second attempt must wait for the first to age out of the window")
}

func TestLoginWindowCancellation(t *testing.T) {
	w := NewLoginWindow(1, time.Hour)
	require.NoError(t, w.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoginWindowReset(t *testing.T) {
	w := NewLoginWindow(1, time.Hour)
	require.NoError(t, w.Wait(context.Background()))

	w.Reset()

	start := time.Now()
	require.NoError(t, w.Wait(context.Background()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}
