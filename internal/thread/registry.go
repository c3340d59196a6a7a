// Package thread manages update threads attached to groups, items and
// subitems, and keeps per-entity update counts in sync for every subscriber.
package thread

import (
	"context"
	"fmt"
	"sync"

	"orderlyflow/internal/board"
	"orderlyflow/internal/logger"

	"golang.org/x/sync/singleflight"
)

// Key identifies one thread.
type Key struct {
	BoardID  string
	EntityID string
	Type     board.EntityType
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.BoardID, k.Type, k.EntityID)
}

// CountFunc loads the current count for a key from the store.
type CountFunc func(ctx context.Context, k Key) (int64, error)

// Registry caches update counts and notifies subscribers of a key whenever
// its count is refreshed. Concurrent refreshes of one key share a single
// store call. Invalidate starts a new generation for the key; results of
// fetches begun in an older generation are neither cached nor published.
type Registry struct {
	fetch CountFunc
	log   *logger.Logger

	mu     sync.Mutex
	counts map[Key]int64
	gens   map[Key]uint64
	subs   map[Key]map[uint64]func(int64)
	nextID uint64

	flight singleflight.Group
}

func NewRegistry(fetch CountFunc, log *logger.Logger) *Registry {
	return &Registry{
		fetch:  fetch,
		log:    logger.Or(log).WithComponent("thread.registry"),
		counts: map[Key]int64{},
		gens:   map[Key]uint64{},
		subs:   map[Key]map[uint64]func(int64){},
	}
}

// Subscribe registers fn for count changes of k. The returned function
// removes the subscription.
func (r *Registry) Subscribe(k Key, fn func(count int64)) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	if r.subs[k] == nil {
		r.subs[k] = map[uint64]func(int64){}
	}
	r.subs[k][id] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subs[k], id)
		if len(r.subs[k]) == 0 {
			delete(r.subs, k)
		}
	}
}

// Subscribers reports how many callbacks are registered for k.
func (r *Registry) Subscribers(k Key) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs[k])
}

// Count returns the cached count for k, loading it on a miss.
func (r *Registry) Count(ctx context.Context, k Key) (int64, error) {
	r.mu.Lock()
	n, ok := r.counts[k]
	r.mu.Unlock()
	if ok {
		return n, nil
	}
	return r.Refresh(ctx, k)
}

// Refresh reloads k from the store, caches it and notifies subscribers.
func (r *Registry) Refresh(ctx context.Context, k Key) (int64, error) {
	r.mu.Lock()
	gen := r.gens[k]
	r.mu.Unlock()

	v, err, _ := r.flight.Do(fmt.Sprintf("%s#%d", k, gen), func() (any, error) {
		n, err := r.fetch(ctx, k)
		if err != nil {
			return int64(0), err
		}
		r.mu.Lock()
		if r.gens[k] != gen {
			r.mu.Unlock()
			return n, nil
		}
		r.counts[k] = n
		callbacks := make([]func(int64), 0, len(r.subs[k]))
		for _, fn := range r.subs[k] {
			callbacks = append(callbacks, fn)
		}
		r.mu.Unlock()
		for _, fn := range callbacks {
			fn(n)
		}
		return n, nil
	})
	if err != nil {
		r.log.WithError(err).Warnw("Failed to refresh update count", "key", k.String())
		return 0, err
	}
	return v.(int64), nil
}

// Invalidate drops the cached count for k and, when anyone is subscribed,
// refreshes it so every subscriber sees the new value. A refresh already in
// flight for k is superseded.
func (r *Registry) Invalidate(ctx context.Context, k Key) {
	r.mu.Lock()
	delete(r.counts, k)
	r.gens[k]++
	watched := len(r.subs[k]) > 0
	r.mu.Unlock()
	if watched {
		_, _ = r.Refresh(ctx, k)
	}
}
