package puppet

// RoomInvitationPayload is one pending invitation into a room.
type RoomInvitationPayload struct {
	ID           string
	InviterID    string
	Topic        string
	Avatar       string
	Invitation   string
	MemberCount  int
	MemberIDList []string
	Timestamp    uint64
	ReceiverID   string
}
