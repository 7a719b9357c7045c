package puppet

import (
	"context"
	"errors"
	"testing"
)

func TestPayloadCacheFetchesOnceUntilInvalidated(t *testing.T) {
	t.Parallel()

	cache, err := newPayloadCache[string](3)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}

	fetches := 0
	fetch := func(_ context.Context, id string) (string, error) {
		fetches++
		return "payload-" + id, nil
	}

	for round := 0; round < 3; round++ {
		payload, err := cache.GetOrFetch(context.Background(), "a", fetch)
		if err != nil {
			t.Fatalf("get or fetch: %v", err)
		}
		if payload != "payload-a" {
			t.Fatalf("payload = %q, want payload-a", payload)
		}
	}
	if fetches != 1 {
		t.Fatalf("fetches = %d, want 1", fetches)
	}

	cache.Invalidate("a")
	if _, err := cache.GetOrFetch(context.Background(), "a", fetch); err != nil {
		t.Fatalf("get or fetch after invalidate: %v", err)
	}
	if fetches != 2 {
		t.Fatalf("fetches after invalidate = %d, want 2", fetches)
	}
}

func TestPayloadCacheFetchFailureLeavesStoreEmpty(t *testing.T) {
	t.Parallel()

	cache, err := newPayloadCache[string](3)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}

	fetchErr := errors.New("remote unavailable")
	_, err = cache.GetOrFetch(context.Background(), "a", func(context.Context, string) (string, error) {
		return "", fetchErr
	})
	if !errors.Is(err, fetchErr) {
		t.Fatalf("err = %v, want %v", err, fetchErr)
	}
	if cache.Len() != 0 {
		t.Fatalf("len = %d, want 0", cache.Len())
	}
}

func TestPayloadCacheEvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	cache, err := newPayloadCache[int](3)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}

	cache.Put("a", 1)
	cache.Put("b", 2)
	cache.Put("c", 3)

	// Touch "a" so "b" becomes the eviction candidate.
	if _, err := cache.GetOrFetch(context.Background(), "a", nil); err != nil {
		t.Fatalf("touch a: %v", err)
	}

	cache.Put("d", 4)

	if cache.Len() != 3 {
		t.Fatalf("len = %d, want 3", cache.Len())
	}
	refetched := false
	if _, err := cache.GetOrFetch(context.Background(), "b", func(context.Context, string) (int, error) {
		refetched = true
		return 2, nil
	}); err != nil {
		t.Fatalf("get b: %v", err)
	}
	if !refetched {
		t.Fatal("b should have been evicted and refetched")
	}
}

func TestPayloadCachePutOverwrites(t *testing.T) {
	t.Parallel()

	cache, err := newPayloadCache[int](2)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}

	cache.Put("a", 1)
	cache.Put("a", 2)

	payload, err := cache.GetOrFetch(context.Background(), "a", nil)
	if err != nil {
		t.Fatalf("get a: %v", err)
	}
	if payload != 2 {
		t.Fatalf("payload = %d, want 2", payload)
	}
}

func TestRoomMemberCacheKey(t *testing.T) {
	t.Parallel()

	if key := roomMemberCacheKey("contact-1", "room-9"); key != "contact-1@@@room-9" {
		t.Fatalf("key = %q, want contact-1@@@room-9", key)
	}
}
