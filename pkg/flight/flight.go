// Package flight coalesces concurrent requests for the same key and caches
// successful results for a while.
package flight

import (
	"context"
	"sync"
	"time"
	"weak"
)

// Group runs work at most once at a time per key. Successful results are
// held strongly for the TTL and weakly afterwards, so they may be reused
// until the garbage collector reclaims them.
type Group[K comparable, V any] struct {
	mu       sync.Mutex
	finished map[K]*entry[V]
	pending  map[K]*call[V]

	work func(context.Context, K) (V, error)
	ttl  time.Duration
	now  func() time.Time
}

type entry[V any] struct {
	w        weak.Pointer[V]
	strong   *V
	deadline time.Time
}

type call[V any] struct {
	val  V
	err  error
	done chan struct{}
}

// New returns a group with a one hour TTL. A ttl <= 0 keeps results forever.
func New[K comparable, V any](work func(context.Context, K) (V, error)) *Group[K, V] {
	return &Group[K, V]{
		finished: make(map[K]*entry[V]),
		pending:  make(map[K]*call[V]),
		work:     work,
		ttl:      time.Hour,
		now:      time.Now,
	}
}

// Expiry sets the strong-hold duration for future results.
func (g *Group[K, V]) Expiry(d time.Duration) {
	g.mu.Lock()
	g.ttl = d
	g.mu.Unlock()
}

// Get returns a cached value, joins an in-flight call, or starts a new one.
// The work runs detached from ctx so a caller giving up does not fail the
// other waiters.
func (g *Group[K, V]) Get(ctx context.Context, k K) (V, bool, error) {
	g.mu.Lock()
	if v, ok := g.cached(k); ok {
		g.mu.Unlock()
		return v, true, nil
	}

	c, ok := g.pending[k]
	if !ok {
		c = &call[V]{done: make(chan struct{})}
		g.pending[k] = c
		go g.do(context.WithoutCancel(ctx), k, c)
	}
	g.mu.Unlock()

	select {
	case <-c.done:
		return c.val, false, c.err
	case <-ctx.Done():
		var zero V
		return zero, false, ctx.Err()
	}
}

// Forget drops any cached value for k.
func (g *Group[K, V]) Forget(k K) {
	g.mu.Lock()
	delete(g.finished, k)
	g.mu.Unlock()
}

func (g *Group[K, V]) do(ctx context.Context, k K, c *call[V]) {
	c.val, c.err = g.work(ctx, k)

	g.mu.Lock()
	if c.err == nil {
		g.store(k, c.val)
	}
	delete(g.pending, k)
	g.mu.Unlock()
	close(c.done)
}

// cached must be called with g.mu held.
func (g *Group[K, V]) cached(k K) (V, bool) {
	var zero V
	e, ok := g.finished[k]
	if !ok {
		return zero, false
	}
	if e.strong != nil && !e.deadline.IsZero() && g.now().After(e.deadline) {
		e.strong = nil
	}
	if vp := e.w.Value(); vp != nil {
		return *vp, true
	}
	delete(g.finished, k)
	return zero, false
}

// store must be called with g.mu held.
func (g *Group[K, V]) store(k K, val V) {
	v := new(V)
	*v = val

	e := &entry[V]{w: weak.Make(v), strong: v}
	if g.ttl > 0 {
		e.deadline = g.now().Add(g.ttl)
	}
	g.finished[k] = e
}
