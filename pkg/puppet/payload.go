package puppet

// PayloadType names a cached entity class for dirty invalidation.
type PayloadType int32

const (
	PayloadTypeUnknown PayloadType = iota
	PayloadTypeMessage
	PayloadTypeContact
	PayloadTypeRoom
	PayloadTypeRoomMember
	PayloadTypeFriendship
)

// String returns the wire name of the payload type.
func (t PayloadType) String() string {
	switch t {
	case PayloadTypeMessage:
		return "message"
	case PayloadTypeContact:
		return "contact"
	case PayloadTypeRoom:
		return "room"
	case PayloadTypeRoomMember:
		return "room-member"
	case PayloadTypeFriendship:
		return "friendship"
	default:
		return "unknown"
	}
}
