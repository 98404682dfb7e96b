// Package sync sequences the store, gateway, and merge engine into the
// tags, bags, products pipeline and the push-one-entity flows.
package sync

import (
	"context"
	"sync"
	"time"
)

// DefaultMinInterval is the minimum gap between accepted pipeline triggers.
const DefaultMinInterval = 2 * time.Second

// Guard is the engine's sole concurrency-control primitive: a binary
// permit plus a minimum-interval throttle. Pipelines never overlap, and
// rapid repeated triggers collapse into at most one run per interval. A
// rejected trigger is dropped, never queued.
type Guard struct {
	permit chan struct{}

	mu          sync.Mutex
	lastRunAt   time.Time
	minInterval time.Duration

	now func() time.Time
}

// NewGuard creates a guard with the given minimum trigger interval.
func NewGuard(minInterval time.Duration) *Guard {
	return &Guard{
		permit:      make(chan struct{}, 1),
		minInterval: minInterval,
		now:         time.Now,
	}
}

// TryEnter attempts to take the permit for a throttled pipeline run. It
// fails without blocking when the permit is held or the minimum interval
// since the last accepted trigger has not elapsed. On success the caller
// must call the returned release exactly once, on every exit path.
func (g *Guard) TryEnter() (release func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.lastRunAt.IsZero() && g.now().Sub(g.lastRunAt) < g.minInterval {
		return nil, false
	}

	select {
	case g.permit <- struct{}{}:
		g.lastRunAt = g.now()
		return g.releaseFunc(), true
	default:
		return nil, false
	}
}

// Acquire blocks until the permit frees or the context is cancelled. It
// bypasses the throttle: push, delete, and authoritative-refresh flows
// must run once triggered, they just may not overlap a pipeline.
func (g *Guard) Acquire(ctx context.Context) (release func(), err error) {
	select {
	case g.permit <- struct{}{}:
		return g.releaseFunc(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// releaseFunc builds a single-use release for the held permit.
func (g *Guard) releaseFunc() func() {
	var once sync.Once
	return func() {
		once.Do(func() { <-g.permit })
	}
}

// Busy reports whether the permit is currently held.
func (g *Guard) Busy() bool {
	return len(g.permit) == 1
}

// LastRunAt returns the time of the last accepted throttled trigger.
func (g *Guard) LastRunAt() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastRunAt
}
