// Package ratelimit throttles outbound provider calls with a sliding
// window of request timestamps per provider.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Spec is a provider's declared request budget.
type Spec struct {
	MaxRequests int
	Window      time.Duration
}

// Limiter tracks request timestamps per provider and blocks callers
// until a slot is free. Timestamps come from time.Now, which carries a
// monotonic reading, so wall-clock adjustments do not skew the window.
// Safe for concurrent use by batch workers.
type Limiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time

	// overridable in tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an empty limiter.
func New() *Limiter {
	return &Limiter{
		windows: make(map[string][]time.Time),
		now:     time.Now,
		sleep:   sleepCtx,
	}
}

// Acquire blocks until the provider has capacity within its window, then
// records the request. Returns early only if ctx is cancelled. A zero or
// negative MaxRequests means unlimited.
func (l *Limiter) Acquire(ctx context.Context, provider string, spec Spec) error {
	if spec.MaxRequests <= 0 || spec.Window <= 0 {
		return ctx.Err()
	}

	for {
		l.mu.Lock()
		now := l.now()
		window := l.prune(provider, now, spec.Window)

		if len(window) < spec.MaxRequests {
			l.windows[provider] = append(window, now)
			l.mu.Unlock()
			return nil
		}

		wait := spec.Window - now.Sub(window[0])
		l.mu.Unlock()

		if wait <= 0 {
			continue
		}
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// prune drops timestamps older than the window. Caller holds the lock.
func (l *Limiter) prune(provider string, now time.Time, window time.Duration) []time.Time {
	kept := l.windows[provider][:0]
	for _, t := range l.windows[provider] {
		if now.Sub(t) < window {
			kept = append(kept, t)
		}
	}
	l.windows[provider] = kept
	return kept
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
