package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_Disabled(t *testing.T) {
	limiter := New(0)

	start := time.Now()
	for i := 0; i < 10; i++ {
		require.NoError(t, limiter.Wait(context.Background()))
	}

	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, time.Duration(0), limiter.Interval())
}

func TestLimiter_SpacesPermits(t *testing.T) {
	const interval = 50 * time.Millisecond
	limiter := New(interval)

	// The burst token makes the first permit free; the next two each cost
	// a full interval.
	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Wait(context.Background()))
	}

	assert.GreaterOrEqual(t, time.Since(start), 2*interval)
}

func TestLimiter_SharedAcrossGoroutines(t *testing.T) {
	const interval = 50 * time.Millisecond
	limiter := New(interval)

	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, limiter.Wait(context.Background()))
		}()
	}
	wg.Wait()

	// Three permits through one limiter take at least two intervals even
	// when requested concurrently.
	assert.GreaterOrEqual(t, time.Since(start), 2*interval)
}

func TestLimiter_WaitHonorsContext(t *testing.T) {
	limiter := New(time.Hour)

	// Consume the burst token so the next wait would block for an hour.
	require.NoError(t, limiter.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := limiter.Wait(ctx)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
