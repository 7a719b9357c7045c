package puppet

import "context"

// RawEvent is one undecoded frame from the backend event stream. Payload
// is the JSON body for the discriminant in Type.
type RawEvent struct {
	Type    int32
	Payload []byte
}

// Backend is the capability contract a concrete protocol adapter implements.
// The Puppet layer never caches inside a Backend; all methods fetch or act
// against the remote service directly.
//
// Methods return *BackendError (possibly wrapping a cause) on remote
// failure and ErrUnsupported for capabilities the adapter does not have.
type Backend interface {
	// Start establishes the connection to the remote service.
	Start(ctx context.Context) error
	// Stop tears the connection down. The events channel is closed after
	// Stop returns.
	Stop(ctx context.Context) error
	// Events returns the raw frame stream. The channel is closed when the
	// backend stops or the connection is lost.
	Events(ctx context.Context) (<-chan RawEvent, error)

	// Ding asks the remote service to answer with a dong event echoing data.
	Ding(ctx context.Context, data string) error
	// Logout ends the authenticated session.
	Logout(ctx context.Context) error

	ContactPayload(ctx context.Context, contactID string) (ContactPayload, error)
	ContactList(ctx context.Context) ([]string, error)
	ContactAlias(ctx context.Context, contactID string) (string, error)
	ContactAliasSet(ctx context.Context, contactID string, alias string) error
	ContactAvatar(ctx context.Context, contactID string) (string, error)
	ContactSelfName(ctx context.Context, name string) error
	ContactSelfQRCode(ctx context.Context) (string, error)
	ContactSelfSignature(ctx context.Context, signature string) error

	MessagePayload(ctx context.Context, messageID string) (MessagePayload, error)
	MessageSendText(ctx context.Context, conversationID string, text string, mentionIDList []string) (string, error)
	MessageSendContact(ctx context.Context, conversationID string, contactID string) (string, error)
	MessageRecall(ctx context.Context, messageID string) (bool, error)

	RoomPayload(ctx context.Context, roomID string) (RoomPayload, error)
	RoomList(ctx context.Context) ([]string, error)
	RoomMemberPayload(ctx context.Context, roomID string, contactID string) (RoomMemberPayload, error)
	RoomMemberList(ctx context.Context, roomID string) ([]string, error)
	RoomCreate(ctx context.Context, contactIDList []string, topic string) (string, error)
	RoomAdd(ctx context.Context, roomID string, contactID string) error
	RoomDel(ctx context.Context, roomID string, contactID string) error
	RoomQuit(ctx context.Context, roomID string) error
	RoomTopic(ctx context.Context, roomID string) (string, error)
	RoomTopicSet(ctx context.Context, roomID string, topic string) error
	RoomAnnounce(ctx context.Context, roomID string) (string, error)
	RoomAnnounceSet(ctx context.Context, roomID string, text string) error
	RoomQRCode(ctx context.Context, roomID string) (string, error)

	RoomInvitationPayload(ctx context.Context, roomInvitationID string) (RoomInvitationPayload, error)
	RoomInvitationAccept(ctx context.Context, roomInvitationID string) error

	FriendshipPayload(ctx context.Context, friendshipID string) (FriendshipPayload, error)
	FriendshipAccept(ctx context.Context, friendshipID string) error
	FriendshipAdd(ctx context.Context, contactID string, hello string) error
	FriendshipSearchPhone(ctx context.Context, phone string) (string, error)
	FriendshipSearchHandle(ctx context.Context, handle string) (string, error)
}
