package puppet

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Bounded capacities for the entity caches. Room members dominate because
// every (member, room) pair is a distinct entry.
const (
	contactCacheCap        = 3000
	friendshipCacheCap     = 300
	messageCacheCap        = 500
	roomCacheCap           = 500
	roomMemberCacheCap     = 30000
	roomInvitationCacheCap = 100
)

// roomMemberKeySeparator joins a contact id and a room id into one
// room-member cache key. It must never occur inside an id.
const roomMemberKeySeparator = "@@@"

// roomMemberCacheKey builds the composite key for one member of one room.
func roomMemberCacheKey(contactID string, roomID string) string {
	return contactID + roomMemberKeySeparator + roomID
}

// payloadCache is one bounded LRU store in front of a backend fetch.
// The underlying LRU is safe for concurrent use; a fetch on miss runs
// without any cache lock held, so concurrent misses may fetch more than
// once and the last result wins.
type payloadCache[P any] struct {
	store *lru.Cache[string, P]
}

// newPayloadCache creates a store bounded to capacity entries.
func newPayloadCache[P any](capacity int) (*payloadCache[P], error) {
	store, err := lru.New[string, P](capacity)
	if err != nil {
		return nil, fmt.Errorf("new payload cache: %w", err)
	}

	return &payloadCache[P]{store: store}, nil
}

// GetOrFetch returns the cached payload for id, fetching and populating
// the store on a miss. A fetch failure leaves the store untouched.
func (c *payloadCache[P]) GetOrFetch(
	ctx context.Context,
	id string,
	fetch func(ctx context.Context, id string) (P, error),
) (P, error) {
	if payload, found := c.store.Get(id); found {
		return payload, nil
	}

	payload, err := fetch(ctx, id)
	if err != nil {
		var zero P
		return zero, err
	}
	c.store.Add(id, payload)

	return payload, nil
}

// Put stores an authoritative payload unconditionally.
func (c *payloadCache[P]) Put(id string, payload P) {
	c.store.Add(id, payload)
}

// Invalidate removes the entry for id. Removing an absent id is a no-op.
func (c *payloadCache[P]) Invalidate(id string) {
	c.store.Remove(id)
}

// IDs returns the cached ids from least to most recently used.
func (c *payloadCache[P]) IDs() []string {
	return c.store.Keys()
}

// Len returns the number of cached entries.
func (c *payloadCache[P]) Len() int {
	return c.store.Len()
}
