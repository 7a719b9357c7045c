package puppet

import (
	"context"
	"fmt"
)

// DirtyPayload invalidates the cache entry for one payload. For rooms the
// member entries are invalidated along with the room itself; the member
// list is fetched fresh from the backend so stale cached membership cannot
// leave orphaned entries. A fetch failure aborts the whole invalidation
// so no partial state is left behind.
func (p *Puppet) DirtyPayload(ctx context.Context, payloadType PayloadType, id string) error {
	switch payloadType {
	case PayloadTypeMessage:
		p.messages.Invalidate(id)
	case PayloadTypeContact:
		p.contacts.Invalidate(id)
	case PayloadTypeRoom:
		p.rooms.Invalidate(id)
		if err := p.dirtyRoomMembers(ctx, id); err != nil {
			return err
		}
	case PayloadTypeRoomMember:
		if err := p.dirtyRoomMembers(ctx, id); err != nil {
			return err
		}
	case PayloadTypeFriendship:
		p.friendships.Invalidate(id)
	default:
		return fmt.Errorf("dirty payload %s: %w", id, ErrUnknownPayloadType)
	}

	return nil
}

// dirtyRoomMembers drops every member entry of roomID. Membership is
// enumerated from the backend rather than the room cache, which may be
// stale or already evicted.
func (p *Puppet) dirtyRoomMembers(ctx context.Context, roomID string) error {
	memberIDList, err := p.backend.RoomMemberList(ctx, roomID)
	if err != nil {
		return fmt.Errorf("dirty room members %s: %w", roomID, err)
	}

	for _, contactID := range memberIDList {
		p.roomMembers.Invalidate(roomMemberCacheKey(contactID, roomID))
	}

	return nil
}
