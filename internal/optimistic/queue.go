package optimistic

import (
	"context"
	"slices"
)

// keyQueue orders work per key. reserve takes a place at the back of every
// named key's line and must be called while the caller holds the engine
// mutex, so places follow local apply order. The returned wait blocks until
// everyone ahead on every key has released.
type keyQueue struct {
	tails map[string]chan struct{}
}

func newKeyQueue() *keyQueue {
	return &keyQueue{tails: map[string]chan struct{}{}}
}

// reserve must be called with the engine mutex held. release must be called
// with the engine mutex held as well.
func (q *keyQueue) reserve(keys []string) (wait func(context.Context) error, release func()) {
	keys = slices.Compact(slices.Sorted(slices.Values(keys)))
	mine := make(chan struct{})
	var ahead []chan struct{}
	for _, k := range keys {
		if prev, ok := q.tails[k]; ok {
			ahead = append(ahead, prev)
		}
		q.tails[k] = mine
	}

	wait = func(ctx context.Context) error {
		for _, ch := range ahead {
			select {
			case <-ch:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	}
	release = func() {
		for _, k := range keys {
			if q.tails[k] == mine {
				delete(q.tails, k)
			}
		}
		// A waiter that gave up early still lets its successors in only
		// after everyone ahead of it is done.
		go func() {
			for _, ch := range ahead {
				<-ch
			}
			close(mine)
		}()
	}
	return wait, release
}
