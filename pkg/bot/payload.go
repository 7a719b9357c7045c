package bot

import "puppetry/pkg/puppet"

// Handler payloads carry hydrated entities where the wire event only
// names ids. Hydration failures degrade to entities without payloads,
// never to missing fields.

// DongPayload acknowledges a ding probe.
type DongPayload struct {
	Data string
}

// ErrorPayload carries an asynchronous backend failure description.
type ErrorPayload struct {
	Data string
}

// FriendshipPayload carries the hydrated friendship entity.
type FriendshipPayload struct {
	Friendship *Friendship
}

// HeartbeatPayload signals backend liveness.
type HeartbeatPayload struct {
	Data string
}

// LoginPayload carries the account that just authenticated.
type LoginPayload struct {
	Contact *ContactSelf
}

// LogoutPayload carries the account whose session just ended.
type LogoutPayload struct {
	Contact *Contact
	Data    string
}

// MessagePayload carries the hydrated message entity.
type MessagePayload struct {
	Message *Message
}

// ReadyPayload signals that the backend finished its initial sync.
type ReadyPayload struct {
	Data string
}

// ResetPayload asks the session to restart.
type ResetPayload struct {
	Data string
}

// RoomInvitePayload carries the hydrated invitation entity.
type RoomInvitePayload struct {
	RoomInvitation *RoomInvitation
}

// RoomJoinPayload carries the room and the contacts that entered it.
type RoomJoinPayload struct {
	Room      *Room
	Invitees  []*Contact
	Inviter   *Contact
	Timestamp uint64
}

// RoomLeavePayload carries the room and the contacts that left it.
type RoomLeavePayload struct {
	Room      *Room
	Removees  []*Contact
	Remover   *Contact
	Timestamp uint64
}

// RoomTopicPayload carries a topic change with old and new values.
type RoomTopicPayload struct {
	Room      *Room
	NewTopic  string
	OldTopic  string
	Changer   *Contact
	Timestamp uint64
}

// ScanPayload carries login QR code state.
type ScanPayload struct {
	Status puppet.ScanStatus
	QRCode string
	Data   string
}
