// Package cache implements the client-portal data synchronization layer:
// a TTL cache, a fetch de-duplicating read-through loader, and an
// optimistic mutation engine with per-key rollback.
package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Entry is one cached value. FetchedAt marks the last authoritative fetch;
// local patches deliberately leave it untouched so an optimistic update
// does not extend the validity window.
type Entry struct {
	Key       string
	Value     any
	FetchedAt time.Time
}

// Store is a TTL cache keyed by composite resource keys. It is safe for
// concurrent use. Unlike a module-global map it is constructed explicitly
// and cleared on session logout, so entries never leak across sessions.
type Store struct {
	clock clockwork.Clock

	mu      sync.RWMutex
	entries map[string]Entry
}

// NewStore creates an empty Store using the given clock.
func NewStore(clock clockwork.Clock) *Store {
	return &Store{
		clock:   clock,
		entries: make(map[string]Entry),
	}
}

// Get returns the entry for key, fresh or stale, and whether it exists.
func (s *Store) Get(key string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e, ok
}

// Set stores value under key with FetchedAt set to now.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = Entry{Key: key, Value: value, FetchedAt: s.clock.Now()}
}

// Fresh reports whether the entry is still inside its validity window.
func (s *Store) Fresh(e Entry, ttl time.Duration) bool {
	return s.clock.Since(e.FetchedAt) < ttl
}

// Invalidate removes the entry for key, forcing the next load to refetch.
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Patch applies updater to the cached value without touching FetchedAt,
// so the entry keeps its original validity window. Returns false when no
// entry exists for key.
func (s *Store) Patch(key string, updater func(value any) any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return false
	}
	e.Value = updater(e.Value)
	s.entries[key] = e
	return true
}

// Clear removes every entry. Called on logout so a new session never sees
// the previous session's data.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Entry)
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
