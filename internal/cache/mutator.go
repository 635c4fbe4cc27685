package cache

import (
	"context"
	"sync"
)

// Mutation describes one optimistic write against a cached key.
type Mutation struct {
	// Key is the cache key whose value reflects the mutation locally.
	Key string
	// Apply computes the optimistic value from the current cached value.
	Apply func(prev any) any
	// Remote performs the authoritative write.
	Remote func(ctx context.Context) (any, error)
	// Reconcile, when set, rewrites the cached value from the server
	// response after Remote succeeds. It runs inside the mutation's queue
	// turn, so a mutation queued behind this one captures its "previous"
	// from the reconciled state and can never roll back over it. When nil
	// the optimistic value stands.
	Reconcile func(current, resp any) any
}

// Mutator applies optimistic mutations: the cache reflects the change
// immediately, the remote write follows, and on failure the captured
// previous value is restored verbatim.
//
// Mutations on the same key are serialized in submission order through a
// per-key FIFO queue. A queued mutation captures its "previous" from the
// current, possibly still-optimistic cache state and rolls back to exactly
// that state, never to the pre-chain state. Unrelated keys proceed
// independently.
type Mutator struct {
	store *Store

	mu    sync.Mutex
	tails map[string]chan struct{}
}

// NewMutator creates a Mutator over store.
func NewMutator(store *Store) *Mutator {
	return &Mutator{
		store: store,
		tails: make(map[string]chan struct{}),
	}
}

// Do runs one mutation. It returns the remote response, or the remote
// error after the cache has been rolled back. Errors are never retried
// here; retry policy belongs to the caller.
//
// If ctx is cancelled while the mutation is queued behind another one on
// the same key, Do returns ctx.Err() without touching the cache.
func (m *Mutator) Do(ctx context.Context, mut Mutation) (any, error) {
	turn := m.enqueue(mut.Key)
	if turn.prev != nil {
		select {
		case <-turn.prev:
		case <-ctx.Done():
			// Keep the chain intact: hand the turn over once the
			// predecessor finishes, without running this mutation.
			go func() {
				<-turn.prev
				m.finish(mut.Key, turn)
			}()
			return nil, ctx.Err()
		}
	}
	defer m.finish(mut.Key, turn)

	prev, existed := m.store.Get(mut.Key)
	applied := existed && m.store.Patch(mut.Key, mut.Apply)

	resp, err := mut.Remote(ctx)
	if err != nil {
		if applied {
			m.store.Patch(mut.Key, func(any) any { return prev.Value })
		}
		return nil, err
	}

	if applied && mut.Reconcile != nil {
		m.store.Patch(mut.Key, func(cur any) any { return mut.Reconcile(cur, resp) })
	}
	return resp, nil
}

type queueTurn struct {
	prev chan struct{}
	self chan struct{}
}

func (m *Mutator) enqueue(key string) queueTurn {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := queueTurn{prev: m.tails[key], self: make(chan struct{})}
	m.tails[key] = t.self
	return t
}

func (m *Mutator) finish(key string, t queueTurn) {
	close(t.self)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tails[key] == t.self {
		delete(m.tails, key)
	}
}
