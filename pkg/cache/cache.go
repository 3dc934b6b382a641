// Package cache provides the time-bounded store in front of catalog builds.
// It guarantees at most one concurrent build per key and serves stale payloads
// when a rebuild fails.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/singleflight"
)

// Cache is a key-scoped TTL store. Replacement is atomic: readers see the old
// payload until a new one fully exists. Created once at process start and
// passed explicitly to its consumers.
type Cache[T any] struct {
	mu      sync.Mutex
	entries map[string]entry[T]
	group   singleflight.Group
	now     func() time.Time
}

type entry[T any] struct {
	payload   T
	fetchedAt time.Time
	ttl       time.Duration
}

// New creates an empty cache
func New[T any]() *Cache[T] {
	return &Cache[T]{
		entries: make(map[string]entry[T]),
		now:     time.Now,
	}
}

// GetOrBuild returns the cached payload for key when fresh, otherwise invokes
// builder and stores the result. Concurrent callers for the same key share a
// single build. A caller whose context expires stops waiting, but the build
// continues and its result is cached for subsequent callers. When the builder
// fails and a previous payload exists, the stale payload is returned instead
// of the error.
func (c *Cache[T]) GetOrBuild(ctx context.Context, key string, ttl time.Duration, builder func(ctx context.Context) (T, error)) (T, error) {
	if payload, ok := c.fresh(key); ok {
		return payload, nil
	}

	// the build is detached from the caller: an abandoned request must not
	// cancel work other callers are waiting on
	buildCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		// re-check under singleflight, a concurrent build may have just finished
		if payload, ok := c.fresh(key); ok {
			return payload, nil
		}
		payload, err := builder(buildCtx)
		if err != nil {
			return nil, err
		}
		c.store(key, payload, ttl)
		return payload, nil
	})

	var zero T
	select {
	case res := <-ch:
		if res.Err != nil {
			if stale, ok := c.any(key); ok {
				lgr.Printf("[WARN] build failed for %q, serving stale payload: %v", key, res.Err)
				return stale, nil
			}
			return zero, fmt.Errorf("build %q: %w", key, res.Err)
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Clear drops all entries
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[T])
}

// Len returns the number of stored entries, fresh or stale
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// fresh returns the payload when present and within its ttl
func (c *Cache[T]) fresh(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.fetchedAt) >= e.ttl {
		var zero T
		return zero, false
	}
	return e.payload, true
}

// any returns the payload regardless of staleness
func (c *Cache[T]) any(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		var zero T
		return zero, false
	}
	return e.payload, true
}

func (c *Cache[T]) store(key string, payload T, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[T]{payload: payload, fetchedAt: c.now(), ttl: ttl}
}
