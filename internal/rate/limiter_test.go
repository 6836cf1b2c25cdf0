package rate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_BurstThenDeny(t *testing.T) {
	lim := New(Config{RequestsPerSecond: 1, Burst: 3})

	allowed := 0
	for i := 0; i < 10; i++ {
		if lim.Allow() {
			allowed++
		}
	}
	assert.Equal(t, 3, allowed)
}

func TestLimiter_RefillUsesClock(t *testing.T) {
	lim := New(Config{RequestsPerSecond: 10, Burst: 1})
	now := time.Now()
	lim.now = func() time.Time { return now }
	lim.last = now

	require.True(t, lim.Allow())
	require.False(t, lim.Allow())

	now = now.Add(100 * time.Millisecond)
	assert.True(t, lim.Allow(), "one token accrues after 1/rps")
}

func TestLimiter_ClampsInvalidConfig(t *testing.T) {
	lim := New(Config{})
	assert.True(t, lim.Allow())
	assert.False(t, lim.Allow())
}

func TestLimiter_WaitSucceeds(t *testing.T) {
	lim := New(Config{RequestsPerSecond: 100, Burst: 1})
	lim.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	require.NoError(t, lim.Wait(ctx))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestLimiter_WaitHonoursCancel(t *testing.T) {
	lim := New(Config{RequestsPerSecond: 1, Burst: 1})
	lim.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := lim.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestManager_OneLimiterPerKey(t *testing.T) {
	m := NewManager(Config{RequestsPerSecond: 1, Burst: 1})

	a := m.Get("www.comdirect.de")
	b := m.Get("www.comdirect.de")
	c := m.Get("other.example")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
}

func TestManager_ConcurrentGet(t *testing.T) {
	m := NewManager(Config{RequestsPerSecond: 10, Burst: 10})

	var wg sync.WaitGroup
	got := make([]*Limiter, 50)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = m.Get("host")
		}(i)
	}
	wg.Wait()

	for _, l := range got {
		assert.Same(t, got[0], l)
	}
}
