package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock drives the limiter without real sleeping.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(clock *fakeClock) (*Limiter, *[]time.Duration) {
	l := New()
	l.now = clock.now

	var slept []time.Duration
	l.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		clock.advance(d)
		return nil
	}
	return l, &slept
}

func TestAcquireWithinCapacity(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	l, slept := newTestLimiter(clock)
	spec := Spec{MaxRequests: 2, Window: 5 * time.Second}

	require.NoError(t, l.Acquire(context.Background(), "deezer", spec))
	require.NoError(t, l.Acquire(context.Background(), "deezer", spec))
	assert.Empty(t, *slept, "no blocking expected below capacity")
}

func TestAcquireBlocksThirdCallInWindow(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	l, slept := newTestLimiter(clock)
	spec := Spec{MaxRequests: 2, Window: 5 * time.Second}
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx, "deezer", spec))
	clock.advance(time.Second)
	require.NoError(t, l.Acquire(ctx, "deezer", spec))

	// Third call within the window must wait until the first slot expires.
	require.NoError(t, l.Acquire(ctx, "deezer", spec))
	require.Len(t, *slept, 1)
	assert.Equal(t, 4*time.Second, (*slept)[0])
}

func TestAcquireIsolatesProviders(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	l, slept := newTestLimiter(clock)
	spec := Spec{MaxRequests: 1, Window: time.Minute}
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx, "deezer", spec))
	require.NoError(t, l.Acquire(ctx, "getsongbpm", spec))
	assert.Empty(t, *slept, "different providers must not share a window")
}

func TestAcquireUnlimitedSpec(t *testing.T) {
	l := New()
	for i := 0; i < 100; i++ {
		if err := l.Acquire(context.Background(), "cache", Spec{}); err != nil {
			t.Fatalf("unlimited acquire failed: %v", err)
		}
	}
}

func TestAcquireHonoursCancellation(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	l := New()
	l.now = clock.now
	l.sleep = sleepCtx

	spec := Spec{MaxRequests: 1, Window: time.Hour}
	require.NoError(t, l.Acquire(context.Background(), "deezer", spec))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Acquire(ctx, "deezer", spec)
	assert.ErrorIs(t, err, context.Canceled)
}
