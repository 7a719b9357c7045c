package puppet

import (
	"context"
	"fmt"
)

// ContactSearch returns the ids of contacts matching filter. When
// contactIDList is nil the full backend contact list is searched.
// Contacts whose payload cannot be loaded are skipped.
func (p *Puppet) ContactSearch(ctx context.Context, filter ContactQueryFilter, contactIDList []string) ([]string, error) {
	if contactIDList == nil {
		list, err := p.backend.ContactList(ctx)
		if err != nil {
			return nil, fmt.Errorf("contact search: %w", err)
		}
		contactIDList = list
	}

	matched := make([]string, 0)
	for _, payload := range p.ContactPayloadBatch(ctx, contactIDList) {
		if filter.Match(payload) {
			matched = append(matched, payload.ID)
		}
	}

	return matched, nil
}

// ContactSearchByString returns the union of contacts whose id equals
// query and contacts whose alias equals query, deduplicated.
func (p *Puppet) ContactSearchByString(ctx context.Context, query string, contactIDList []string) ([]string, error) {
	byID, err := p.ContactSearch(ctx, ContactQueryFilter{ID: &query}, contactIDList)
	if err != nil {
		return nil, err
	}
	byAlias, err := p.ContactSearch(ctx, ContactQueryFilter{Alias: &query}, contactIDList)
	if err != nil {
		return nil, err
	}

	return unionIDs(byID, byAlias), nil
}

// MessageSearch returns the ids of cached messages matching filter. Only
// the bounded message cache is consulted; evicted messages are not found.
func (p *Puppet) MessageSearch(ctx context.Context, filter MessageQueryFilter) ([]string, error) {
	matched := make([]string, 0)
	for _, messageID := range p.messages.IDs() {
		payload, err := p.MessagePayload(ctx, messageID)
		if err != nil {
			continue
		}
		if filter.Match(payload) {
			matched = append(matched, payload.ID)
		}
	}

	return matched, nil
}

// RoomSearch returns the ids of rooms matching filter. When roomIDList is
// nil the full backend room list is searched. Rooms whose payload cannot
// be loaded are skipped.
func (p *Puppet) RoomSearch(ctx context.Context, filter RoomQueryFilter, roomIDList []string) ([]string, error) {
	if roomIDList == nil {
		list, err := p.backend.RoomList(ctx)
		if err != nil {
			return nil, fmt.Errorf("room search: %w", err)
		}
		roomIDList = list
	}

	matched := make([]string, 0)
	for _, payload := range p.RoomPayloadBatch(ctx, roomIDList) {
		if filter.Match(payload) {
			matched = append(matched, payload.ID)
		}
	}

	return matched, nil
}

// RoomMemberSearch returns the contact ids of members of roomID matching
// filter. Members whose payload cannot be loaded are skipped.
func (p *Puppet) RoomMemberSearch(ctx context.Context, roomID string, filter RoomMemberQueryFilter) ([]string, error) {
	memberIDList, err := p.backend.RoomMemberList(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("room member search %s: %w", roomID, err)
	}

	matched := make([]string, 0)
	for _, contactID := range memberIDList {
		payload, err := p.RoomMemberPayload(ctx, roomID, contactID)
		if err != nil {
			p.logger.Warn("room member load failed",
				"room_id", roomID,
				"contact_id", contactID,
				"error", err)
			continue
		}
		if filter.Match(payload) {
			matched = append(matched, contactID)
		}
	}

	return matched, nil
}

// RoomMemberSearchByString returns the union of members of roomID whose
// name equals query and members whose room alias equals query,
// deduplicated.
func (p *Puppet) RoomMemberSearchByString(ctx context.Context, roomID string, query string) ([]string, error) {
	byName, err := p.RoomMemberSearch(ctx, roomID, RoomMemberQueryFilter{Name: &query})
	if err != nil {
		return nil, err
	}
	byAlias, err := p.RoomMemberSearch(ctx, roomID, RoomMemberQueryFilter{RoomAlias: &query})
	if err != nil {
		return nil, err
	}

	return unionIDs(byName, byAlias), nil
}

// FriendshipSearch locates a contact for a friendship request. Phone takes
// precedence over handle; an empty id with a nil error means no constraint
// was set or nothing matched.
func (p *Puppet) FriendshipSearch(ctx context.Context, filter FriendshipSearchQueryFilter) (string, error) {
	if filter.Phone != nil {
		contactID, err := p.backend.FriendshipSearchPhone(ctx, *filter.Phone)
		if err != nil {
			return "", fmt.Errorf("friendship search by phone: %w", err)
		}

		return contactID, nil
	}
	if filter.Handle != nil {
		contactID, err := p.backend.FriendshipSearchHandle(ctx, *filter.Handle)
		if err != nil {
			return "", fmt.Errorf("friendship search by handle: %w", err)
		}

		return contactID, nil
	}

	return "", nil
}

// unionIDs merges id sets preserving first-seen order and dropping
// duplicates.
func unionIDs(sets ...[]string) []string {
	seen := make(map[string]struct{})
	merged := make([]string, 0)
	for _, set := range sets {
		for _, id := range set {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			merged = append(merged, id)
		}
	}

	return merged
}
