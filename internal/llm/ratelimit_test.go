package llm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
	mu  sync.Mutex
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(perMinute int) (*rateLimiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := newRateLimiter(perMinute)
	rl.now = clock.Now
	rl.lastRefill = clock.Now()
	return rl, clock
}

func TestRateLimiter(t *testing.T) {
	t.Run("burst up to capacity", func(t *testing.T) {
		rl, _ := newTestLimiter(10)
		for i := 0; i < 10; i++ {
			_, ok := rl.tryAcquire()
			require.True(t, ok, "token %d", i)
		}
		delay, ok := rl.tryAcquire()
		assert.False(t, ok)
		assert.InDelta(t, float64(6*time.Second), float64(delay), float64(10*time.Millisecond))
	})

	t.Run("refills over time", func(t *testing.T) {
		rl, clock := newTestLimiter(60)
		for i := 0; i < 60; i++ {
			_, ok := rl.tryAcquire()
			require.True(t, ok)
		}
		_, ok := rl.tryAcquire()
		require.False(t, ok)

		clock.Advance(time.Second)
		_, ok = rl.tryAcquire()
		assert.True(t, ok)
	})

	t.Run("never exceeds capacity", func(t *testing.T) {
		rl, clock := newTestLimiter(2)
		clock.Advance(time.Hour)
		_, ok := rl.tryAcquire()
		require.True(t, ok)
		_, ok = rl.tryAcquire()
		require.True(t, ok)
		_, ok = rl.tryAcquire()
		assert.False(t, ok)
	})

	t.Run("reset", func(t *testing.T) {
		rl, _ := newTestLimiter(1)
		_, ok := rl.tryAcquire()
		require.True(t, ok)
		rl.reset()
		_, ok = rl.tryAcquire()
		assert.True(t, ok)
	})

	t.Run("context cancellation", func(t *testing.T) {
		rl := newRateLimiter(1)
		require.NoError(t, rl.wait(context.Background()))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- rl.wait(ctx) }()

		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			require.Error(t, err)
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(5 * time.Second):
			t.Fatal("wait did not return after cancellation")
		}
	})

	t.Run("default capacity", func(t *testing.T) {
		rl := newRateLimiter(0)
		assert.InDelta(t, 60.0, rl.capacity, 0.001)
	})
}
