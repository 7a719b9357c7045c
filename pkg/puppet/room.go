package puppet

import "regexp"

// RoomPayload is the full record for one group conversation.
type RoomPayload struct {
	ID           string
	Topic        string
	Avatar       string
	MemberIDList []string
	OwnerID      string
	AdminIDList  []string
}

// RoomMemberPayload is the per-room view of one member contact.
type RoomMemberPayload struct {
	ID        string
	RoomAlias string
	InviterID string
	Avatar    string
	Name      string
}

// RoomQueryFilter narrows room searches. Nil fields are unconstrained;
// set fields must all match.
type RoomQueryFilter struct {
	ID         *string
	Topic      *string
	TopicRegex *regexp.Regexp
}

// Match reports whether payload satisfies every constraint set on the filter.
func (f RoomQueryFilter) Match(payload RoomPayload) bool {
	if f.ID != nil && payload.ID != *f.ID {
		return false
	}
	if f.Topic != nil && payload.Topic != *f.Topic {
		return false
	}
	if f.TopicRegex != nil && !f.TopicRegex.MatchString(payload.Topic) {
		return false
	}

	return true
}

// RoomMemberQueryFilter narrows room member searches within one room.
// Nil fields are unconstrained; set fields must all match.
type RoomMemberQueryFilter struct {
	Name           *string
	NameRegex      *regexp.Regexp
	RoomAlias      *string
	RoomAliasRegex *regexp.Regexp
}

// Match reports whether payload satisfies every constraint set on the filter.
func (f RoomMemberQueryFilter) Match(payload RoomMemberPayload) bool {
	if f.Name != nil && payload.Name != *f.Name {
		return false
	}
	if f.NameRegex != nil && !f.NameRegex.MatchString(payload.Name) {
		return false
	}
	if f.RoomAlias != nil && payload.RoomAlias != *f.RoomAlias {
		return false
	}
	if f.RoomAliasRegex != nil && !f.RoomAliasRegex.MatchString(payload.RoomAlias) {
		return false
	}

	return true
}
