package puppet

// FriendshipType identifies the direction/state of a friendship record.
type FriendshipType int32

const (
	FriendshipTypeUnknown FriendshipType = iota
	FriendshipTypeConfirm
	FriendshipTypeReceive
	FriendshipTypeVerify
)

// FriendshipScene records where a friendship request originated.
type FriendshipScene int32

const (
	FriendshipSceneUnknown FriendshipScene = iota
	FriendshipSceneSearch
	FriendshipSceneRoom
	FriendshipScenePhone
	FriendshipSceneCard
	FriendshipSceneQRCode
)

// FriendshipPayload is one friendship request or confirmation record.
type FriendshipPayload struct {
	ID        string
	ContactID string
	Hello     string
	Timestamp uint64
	Scene     FriendshipScene
	Stranger  string
	Ticket    string
	Type      FriendshipType
}

// FriendshipSearchQueryFilter locates a contact eligible for a friendship
// request. Phone takes precedence over Handle when both are set.
type FriendshipSearchQueryFilter struct {
	Phone  *string
	Handle *string
}
