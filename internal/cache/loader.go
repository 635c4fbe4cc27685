package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loader is a read-through front over a Store. Within a key's validity
// window it serves the cached value; otherwise it fetches, collapsing
// concurrent fetches for the same key into a single remote call.
//
// Policy: a stale entry blocks until a fresh fetch completes. There is no
// stale-while-revalidate: callers always observe a value no older than
// the TTL they asked for, at the cost of fetch latency on expiry.
type Loader struct {
	store  *Store
	flight singleflight.Group
}

// NewLoader creates a Loader over store.
func NewLoader(store *Store) *Loader {
	return &Loader{store: store}
}

// Load returns the value for key, fetching it when missing or stale.
//
// At most one fetch per key is in flight at a time; concurrent callers
// share the same result or the same error. The in-flight registration is
// dropped when the fetch settles either way, so a failed fetch never
// blocks future attempts.
//
// The fetch runs with the context of the caller that initiated it; waiters
// joining an in-flight fetch inherit its outcome.
func (l *Loader) Load(ctx context.Context, key string, ttl time.Duration, fetch func(ctx context.Context) (any, error)) (any, error) {
	if e, ok := l.store.Get(key); ok && l.store.Fresh(e, ttl) {
		return e.Value, nil
	}

	v, err, _ := l.flight.Do(key, func() (any, error) {
		// A waiter queued behind a just-finished flight may arrive here
		// right after the cache was refreshed; serve that instead of
		// fetching again.
		if e, ok := l.store.Get(key); ok && l.store.Fresh(e, ttl) {
			return e.Value, nil
		}
		value, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		l.store.Set(key, value)
		return value, nil
	})
	return v, err
}

// Forget drops any in-flight registration for key. The next Load will
// issue a new fetch even if one is currently running.
func (l *Loader) Forget(key string) {
	l.flight.Forget(key)
}
