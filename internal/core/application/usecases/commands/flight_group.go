package commands

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// flightGroup collapses overlapping calls with the same key into one run.
//
// The run does not use any single caller's context. It gets its own context
// carrying the first caller's values, and that context is canceled once every
// caller waiting on the run has returned. Each caller stops waiting as soon
// as its own ctx is done.
type flightGroup struct {
	group singleflight.Group

	mu      sync.Mutex
	flights map[string]*flight
}

type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

func newFlightGroup() *flightGroup {
	return &flightGroup{flights: make(map[string]*flight)}
}

// Do runs fn once for overlapping callers of key and returns its result, or
// ctx.Err() if ctx ends first. shared reports whether the result was also
// delivered to other callers.
func (g *flightGroup) Do(
	ctx context.Context,
	key string,
	fn func(ctx context.Context) (any, error),
) (v any, shared bool, err error) {
	f := g.join(ctx, key)
	defer g.leave(key, f)

	ch := g.group.DoChan(key, func() (any, error) {
		return fn(f.ctx)
	})

	select {
	case res := <-ch:
		return res.Val, res.Shared, res.Err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func (g *flightGroup) join(ctx context.Context, key string) *flight {
	g.mu.Lock()
	defer g.mu.Unlock()

	f, ok := g.flights[key]
	if !ok {
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: runCtx, cancel: cancel}
		g.flights[key] = f
	}
	f.waiters++
	return f
}

// leave cancels the run once nobody waits for it. The key is forgotten at
// the same time, so a later caller starts a fresh run instead of joining the
// canceled one.
func (g *flightGroup) leave(key string, f *flight) {
	g.mu.Lock()
	defer g.mu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if g.flights[key] == f {
		delete(g.flights, key)
		g.group.Forget(key)
	}
}

// waiting reports how many callers currently wait on key.
func (g *flightGroup) waiting(key string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	if f, ok := g.flights[key]; ok {
		return f.waiters
	}
	return 0
}
