package cache

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestStore_SetGet(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	store := NewStore(clock)

	store.Set("k", "v")

	e, ok := store.Get("k")
	if !ok {
		t.Fatal("Get: entry missing after Set")
	}
	if e.Value != "v" || e.Key != "k" {
		t.Errorf("entry: %+v", e)
	}
	if !e.FetchedAt.Equal(clock.Now()) {
		t.Errorf("FetchedAt: got %v, want %v", e.FetchedAt, clock.Now())
	}
}

func TestStore_FreshWindow(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	store := NewStore(clock)
	ttl := 2 * time.Minute

	store.Set("k", "v")
	e, _ := store.Get("k")

	if !store.Fresh(e, ttl) {
		t.Error("entry stale immediately after Set")
	}

	clock.Advance(ttl - time.Second)
	if !store.Fresh(e, ttl) {
		t.Error("entry stale inside the validity window")
	}

	clock.Advance(time.Second)
	if store.Fresh(e, ttl) {
		t.Error("entry fresh at the TTL boundary")
	}
}

func TestStore_PatchKeepsWindow(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	store := NewStore(clock)

	store.Set("k", 1)
	fetched := clock.Now()
	clock.Advance(30 * time.Second)

	ok := store.Patch("k", func(v any) any { return v.(int) + 1 })
	if !ok {
		t.Fatal("Patch: returned false for existing key")
	}

	e, _ := store.Get("k")
	if e.Value != 2 {
		t.Errorf("Value: got %v, want 2", e.Value)
	}
	if !e.FetchedAt.Equal(fetched) {
		t.Error("Patch moved FetchedAt; the validity window must not be extended")
	}
}

func TestStore_PatchMissingKey(t *testing.T) {
	t.Parallel()

	store := NewStore(clockwork.NewFakeClock())
	if store.Patch("absent", func(v any) any { return v }) {
		t.Error("Patch: returned true for missing key")
	}
}

func TestStore_Invalidate(t *testing.T) {
	t.Parallel()

	store := NewStore(clockwork.NewFakeClock())
	store.Set("k", "v")
	store.Invalidate("k")

	if _, ok := store.Get("k"); ok {
		t.Error("entry survived Invalidate")
	}
}

func TestStore_Clear(t *testing.T) {
	t.Parallel()

	store := NewStore(clockwork.NewFakeClock())
	store.Set("a", 1)
	store.Set("b", 2)

	store.Clear()

	if store.Len() != 0 {
		t.Errorf("Len after Clear: got %d, want 0", store.Len())
	}
}
