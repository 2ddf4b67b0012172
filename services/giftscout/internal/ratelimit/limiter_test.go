package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_FirstWaitIsImmediate(t *testing.T) {
	l := New(time.Second, 1)

	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestLimiter_Spacing(t *testing.T) {
	l := New(50*time.Millisecond, 1)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Wait(ctx))
	}
	// первый сразу, затем две паузы по ~50ms
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestLimiter_BackoffBlocksUntilContextDone(t *testing.T) {
	l := New(0, 1)
	l.Backoff(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestLimiter_BackoffExpires(t *testing.T) {
	l := New(0, 1)
	l.Backoff(30 * time.Millisecond)

	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)

	start = time.Now()
	require.NoError(t, l.Wait(context.Background()))
	assert.Less(t, time.Since(start), 20*time.Millisecond)
}

func TestLimiter_ShorterBackoffDoesNotShrink(t *testing.T) {
	l := New(0, 1)
	l.Backoff(time.Hour)
	l.Backoff(time.Millisecond)

	l.mu.Lock()
	until := l.floodWaitUntil
	l.mu.Unlock()
	assert.Greater(t, time.Until(until), 59*time.Minute)
}
