// Package mock provides a deterministic in-memory puppet backend with a
// scriptable event feed, for tests and example bots.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"puppetry/pkg/puppet"
)

// eventBuffer sizes the raw frame channel; scripted feeds are small.
const eventBuffer = 64

// Backend is an in-memory puppet.Backend. Entities are seeded through the
// Add* methods and protocol events are scripted through the Emit* methods.
// Every payload fetch is counted for cache behavior assertions.
type Backend struct {
	mu sync.Mutex

	started bool
	selfID  string

	contacts        map[string]puppet.ContactPayload
	messages        map[string]puppet.MessagePayload
	rooms           map[string]puppet.RoomPayload
	roomMembers     map[string]map[string]puppet.RoomMemberPayload
	friendships     map[string]puppet.FriendshipPayload
	roomInvitations map[string]puppet.RoomInvitationPayload
	announcements   map[string]string

	fetches map[string]int

	events    chan puppet.RawEvent
	closeOnce sync.Once
}

// NewBackend creates an empty mock backend.
func NewBackend() *Backend {
	return &Backend{
		contacts:        make(map[string]puppet.ContactPayload),
		messages:        make(map[string]puppet.MessagePayload),
		rooms:           make(map[string]puppet.RoomPayload),
		roomMembers:     make(map[string]map[string]puppet.RoomMemberPayload),
		friendships:     make(map[string]puppet.FriendshipPayload),
		roomInvitations: make(map[string]puppet.RoomInvitationPayload),
		announcements:   make(map[string]string),
		fetches:         make(map[string]int),
		events:          make(chan puppet.RawEvent, eventBuffer),
	}
}

// AddContact seeds one contact record.
func (b *Backend) AddContact(payload puppet.ContactPayload) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.contacts[payload.ID] = payload
}

// AddMessage seeds one message record.
func (b *Backend) AddMessage(payload puppet.MessagePayload) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages[payload.ID] = payload
}

// AddRoom seeds one room record.
func (b *Backend) AddRoom(payload puppet.RoomPayload) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rooms[payload.ID] = payload
}

// AddRoomMember seeds one member record of roomID.
func (b *Backend) AddRoomMember(roomID string, payload puppet.RoomMemberPayload) {
	b.mu.Lock()
	defer b.mu.Unlock()
	members, found := b.roomMembers[roomID]
	if !found {
		members = make(map[string]puppet.RoomMemberPayload)
		b.roomMembers[roomID] = members
	}
	members[payload.ID] = payload
}

// AddFriendship seeds one friendship record.
func (b *Backend) AddFriendship(payload puppet.FriendshipPayload) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.friendships[payload.ID] = payload
}

// AddRoomInvitation seeds one room invitation record.
func (b *Backend) AddRoomInvitation(payload puppet.RoomInvitationPayload) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.roomInvitations[payload.ID] = payload
}

// Fetches returns how many times the payload of entity kind/id was
// fetched. Kinds are "contact", "message", "room", "room-member",
// "friendship" and "room-invitation".
func (b *Backend) Fetches(kind string, id string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.fetches[kind+":"+id]
}

func (b *Backend) countFetch(kind string, id string) {
	b.fetches[kind+":"+id]++
}

// Emit scripts one raw frame onto the event feed.
func (b *Backend) Emit(frame puppet.RawEvent) {
	b.events <- frame
}

// EmitJSON scripts one frame with a JSON-marshalled body.
func (b *Backend) EmitJSON(discriminant int32, body any) {
	payload, err := json.Marshal(body)
	if err != nil {
		panic(fmt.Sprintf("mock: marshal event body: %v", err))
	}
	b.Emit(puppet.RawEvent{Type: discriminant, Payload: payload})
}

// EmitLogin scripts a login frame and records contactID as the session
// account.
func (b *Backend) EmitLogin(contactID string) {
	b.mu.Lock()
	b.selfID = contactID
	b.mu.Unlock()

	b.EmitJSON(int32(puppet.EventKindLogin), map[string]any{"contactId": contactID})
}

// EmitLogout scripts a logout frame for the session account.
func (b *Backend) EmitLogout(data string) {
	b.mu.Lock()
	selfID := b.selfID
	b.selfID = ""
	b.mu.Unlock()

	b.EmitJSON(int32(puppet.EventKindLogout), map[string]any{"contactId": selfID, "data": data})
}

// EmitDong scripts a dong frame.
func (b *Backend) EmitDong(data string) {
	b.EmitJSON(int32(puppet.EventKindDong), map[string]any{"data": data})
}

// EmitMessage scripts a message frame for messageID.
func (b *Backend) EmitMessage(messageID string) {
	b.EmitJSON(int32(puppet.EventKindMessage), map[string]any{"messageId": messageID})
}

// EmitScan scripts a scan frame.
func (b *Backend) EmitScan(status puppet.ScanStatus, qrcode string) {
	b.EmitJSON(int32(puppet.EventKindScan), map[string]any{
		"status": int32(status),
		"qrcode": qrcode,
	})
}

// EmitRoomLeave scripts a room-leave frame.
func (b *Backend) EmitRoomLeave(roomID string, removeeIDList []string, removerID string) {
	b.EmitJSON(int32(puppet.EventKindRoomLeave), map[string]any{
		"roomId":        roomID,
		"removeeIdList": removeeIDList,
		"removerId":     removerID,
		"timestamp":     uint64(time.Now().Unix()),
	})
}

// EmitDirty scripts a dirty frame.
func (b *Backend) EmitDirty(payloadType puppet.PayloadType, payloadID string) {
	b.EmitJSON(int32(puppet.EventKindDirty), map[string]any{
		"payloadType": int32(payloadType),
		"payloadId":   payloadID,
	})
}

// CloseEvents ends the event feed; the bot drains and stops.
func (b *Backend) CloseEvents() {
	b.closeOnce.Do(func() {
		close(b.events)
	})
}

// Start marks the backend connected.
func (b *Backend) Start(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.started = true

	return nil
}

// Stop marks the backend disconnected and ends the event feed.
func (b *Backend) Stop(_ context.Context) error {
	b.mu.Lock()
	b.started = false
	b.mu.Unlock()
	b.CloseEvents()

	return nil
}

// Events returns the scripted raw frame feed.
func (b *Backend) Events(_ context.Context) (<-chan puppet.RawEvent, error) {
	return b.events, nil
}

// Ding answers immediately with a dong frame echoing data.
func (b *Backend) Ding(_ context.Context, data string) error {
	b.EmitDong(data)

	return nil
}

// Logout ends the session and scripts the matching logout frame.
func (b *Backend) Logout(_ context.Context) error {
	b.EmitLogout("logout requested")

	return nil
}

// ContactPayload returns the seeded contact record.
func (b *Backend) ContactPayload(_ context.Context, contactID string) (puppet.ContactPayload, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.countFetch("contact", contactID)

	payload, found := b.contacts[contactID]
	if !found {
		return puppet.ContactPayload{}, puppet.NewBackendError("contact not found: "+contactID, nil)
	}

	return payload, nil
}

// ContactList returns all seeded contact ids in stable order.
func (b *Backend) ContactList(_ context.Context) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return sortedKeys(b.contacts), nil
}

// ContactAlias returns the alias of the seeded contact record.
func (b *Backend) ContactAlias(ctx context.Context, contactID string) (string, error) {
	payload, err := b.ContactPayload(ctx, contactID)
	if err != nil {
		return "", err
	}

	return payload.Alias, nil
}

// ContactAliasSet updates the alias of the seeded contact record.
func (b *Backend) ContactAliasSet(_ context.Context, contactID string, alias string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	payload, found := b.contacts[contactID]
	if !found {
		return puppet.NewBackendError("contact not found: "+contactID, nil)
	}
	payload.Alias = alias
	b.contacts[contactID] = payload

	return nil
}

// ContactAvatar returns the avatar of the seeded contact record.
func (b *Backend) ContactAvatar(ctx context.Context, contactID string) (string, error) {
	payload, err := b.ContactPayload(ctx, contactID)
	if err != nil {
		return "", err
	}

	return payload.Avatar, nil
}

// ContactSelfName renames the session account.
func (b *Backend) ContactSelfName(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	payload, found := b.contacts[b.selfID]
	if !found {
		return puppet.NewBackendError("self contact not seeded", nil)
	}
	payload.Name = name
	b.contacts[b.selfID] = payload

	return nil
}

// ContactSelfQRCode returns a synthetic login QR code for the account.
func (b *Backend) ContactSelfQRCode(_ context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return "qr://" + b.selfID, nil
}

// ContactSelfSignature updates the session account signature.
func (b *Backend) ContactSelfSignature(_ context.Context, signature string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	payload, found := b.contacts[b.selfID]
	if !found {
		return puppet.NewBackendError("self contact not seeded", nil)
	}
	payload.Signature = signature
	b.contacts[b.selfID] = payload

	return nil
}

// MessagePayload returns the seeded or sent message record.
func (b *Backend) MessagePayload(_ context.Context, messageID string) (puppet.MessagePayload, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.countFetch("message", messageID)

	payload, found := b.messages[messageID]
	if !found {
		return puppet.MessagePayload{}, puppet.NewBackendError("message not found: "+messageID, nil)
	}

	return payload, nil
}

// MessageSendText records a text message into conversationID and returns
// its generated id.
func (b *Backend) MessageSendText(_ context.Context, conversationID string, text string, mentionIDList []string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	messageID := uuid.NewString()
	payload := puppet.MessagePayload{
		ID:            messageID,
		Text:          text,
		Timestamp:     uint64(time.Now().Unix()),
		Type:          puppet.MessageTypeText,
		FromID:        b.selfID,
		MentionIDList: mentionIDList,
	}
	if _, isRoom := b.rooms[conversationID]; isRoom {
		payload.RoomID = conversationID
	} else {
		payload.ToID = conversationID
	}
	b.messages[messageID] = payload

	return messageID, nil
}

// MessageSendContact records a contact card message into conversationID
// and returns its generated id.
func (b *Backend) MessageSendContact(_ context.Context, conversationID string, contactID string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	messageID := uuid.NewString()
	payload := puppet.MessagePayload{
		ID:        messageID,
		Text:      contactID,
		Timestamp: uint64(time.Now().Unix()),
		Type:      puppet.MessageTypeContact,
		FromID:    b.selfID,
	}
	if _, isRoom := b.rooms[conversationID]; isRoom {
		payload.RoomID = conversationID
	} else {
		payload.ToID = conversationID
	}
	b.messages[messageID] = payload

	return messageID, nil
}

// MessageRecall removes a sent message.
func (b *Backend) MessageRecall(_ context.Context, messageID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, found := b.messages[messageID]; !found {
		return false, nil
	}
	delete(b.messages, messageID)

	return true, nil
}

// RoomPayload returns the seeded room record.
func (b *Backend) RoomPayload(_ context.Context, roomID string) (puppet.RoomPayload, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.countFetch("room", roomID)

	payload, found := b.rooms[roomID]
	if !found {
		return puppet.RoomPayload{}, puppet.NewBackendError("room not found: "+roomID, nil)
	}

	return payload, nil
}

// RoomList returns all seeded room ids in stable order.
func (b *Backend) RoomList(_ context.Context) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return sortedKeys(b.rooms), nil
}

// RoomMemberPayload returns the seeded member record of roomID.
func (b *Backend) RoomMemberPayload(_ context.Context, roomID string, contactID string) (puppet.RoomMemberPayload, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.countFetch("room-member", contactID+"@"+roomID)

	payload, found := b.roomMembers[roomID][contactID]
	if !found {
		return puppet.RoomMemberPayload{}, puppet.NewBackendError("room member not found: "+contactID, nil)
	}

	return payload, nil
}

// RoomMemberList returns the member contact ids of roomID in stable order.
func (b *Backend) RoomMemberList(_ context.Context, roomID string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	members, found := b.roomMembers[roomID]
	if !found {
		return nil, puppet.NewBackendError("room not found: "+roomID, nil)
	}

	return sortedKeys(members), nil
}

// RoomCreate records a new room with contactIDList plus the session
// account as members.
func (b *Backend) RoomCreate(_ context.Context, contactIDList []string, topic string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	roomID := uuid.NewString()
	memberIDList := append([]string{b.selfID}, contactIDList...)
	b.rooms[roomID] = puppet.RoomPayload{
		ID:           roomID,
		Topic:        topic,
		MemberIDList: memberIDList,
		OwnerID:      b.selfID,
	}
	members := make(map[string]puppet.RoomMemberPayload, len(memberIDList))
	for _, contactID := range memberIDList {
		members[contactID] = puppet.RoomMemberPayload{
			ID:   contactID,
			Name: b.contacts[contactID].Name,
		}
	}
	b.roomMembers[roomID] = members

	return roomID, nil
}

// RoomAdd records contactID as a member of roomID.
func (b *Backend) RoomAdd(_ context.Context, roomID string, contactID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	payload, found := b.rooms[roomID]
	if !found {
		return puppet.NewBackendError("room not found: "+roomID, nil)
	}
	payload.MemberIDList = append(payload.MemberIDList, contactID)
	b.rooms[roomID] = payload
	if b.roomMembers[roomID] == nil {
		b.roomMembers[roomID] = make(map[string]puppet.RoomMemberPayload)
	}
	b.roomMembers[roomID][contactID] = puppet.RoomMemberPayload{
		ID:   contactID,
		Name: b.contacts[contactID].Name,
	}

	return nil
}

// RoomDel removes contactID from roomID.
func (b *Backend) RoomDel(_ context.Context, roomID string, contactID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	payload, found := b.rooms[roomID]
	if !found {
		return puppet.NewBackendError("room not found: "+roomID, nil)
	}
	memberIDList := make([]string, 0, len(payload.MemberIDList))
	for _, memberID := range payload.MemberIDList {
		if memberID != contactID {
			memberIDList = append(memberIDList, memberID)
		}
	}
	payload.MemberIDList = memberIDList
	b.rooms[roomID] = payload
	delete(b.roomMembers[roomID], contactID)

	return nil
}

// RoomQuit removes the session account from roomID.
func (b *Backend) RoomQuit(ctx context.Context, roomID string) error {
	b.mu.Lock()
	selfID := b.selfID
	b.mu.Unlock()

	return b.RoomDel(ctx, roomID, selfID)
}

// RoomTopic returns the topic of the seeded room record.
func (b *Backend) RoomTopic(ctx context.Context, roomID string) (string, error) {
	payload, err := b.RoomPayload(ctx, roomID)
	if err != nil {
		return "", err
	}

	return payload.Topic, nil
}

// RoomTopicSet updates the topic of the seeded room record.
func (b *Backend) RoomTopicSet(_ context.Context, roomID string, topic string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	payload, found := b.rooms[roomID]
	if !found {
		return puppet.NewBackendError("room not found: "+roomID, nil)
	}
	payload.Topic = topic
	b.rooms[roomID] = payload

	return nil
}

// RoomAnnounce returns the announcement of roomID.
func (b *Backend) RoomAnnounce(_ context.Context, roomID string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.announcements[roomID], nil
}

// RoomAnnounceSet replaces the announcement of roomID.
func (b *Backend) RoomAnnounceSet(_ context.Context, roomID string, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.announcements[roomID] = text

	return nil
}

// RoomQRCode returns a synthetic join QR code for roomID.
func (b *Backend) RoomQRCode(_ context.Context, roomID string) (string, error) {
	return "qr://room/" + roomID, nil
}

// RoomInvitationPayload returns the seeded invitation record.
func (b *Backend) RoomInvitationPayload(_ context.Context, roomInvitationID string) (puppet.RoomInvitationPayload, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.countFetch("room-invitation", roomInvitationID)

	payload, found := b.roomInvitations[roomInvitationID]
	if !found {
		return puppet.RoomInvitationPayload{}, puppet.NewBackendError("room invitation not found: "+roomInvitationID, nil)
	}

	return payload, nil
}

// RoomInvitationAccept removes the pending invitation record.
func (b *Backend) RoomInvitationAccept(_ context.Context, roomInvitationID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, found := b.roomInvitations[roomInvitationID]; !found {
		return puppet.NewBackendError("room invitation not found: "+roomInvitationID, nil)
	}
	delete(b.roomInvitations, roomInvitationID)

	return nil
}

// FriendshipPayload returns the seeded friendship record.
func (b *Backend) FriendshipPayload(_ context.Context, friendshipID string) (puppet.FriendshipPayload, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.countFetch("friendship", friendshipID)

	payload, found := b.friendships[friendshipID]
	if !found {
		return puppet.FriendshipPayload{}, puppet.NewBackendError("friendship not found: "+friendshipID, nil)
	}

	return payload, nil
}

// FriendshipAccept confirms the seeded friendship record.
func (b *Backend) FriendshipAccept(_ context.Context, friendshipID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	payload, found := b.friendships[friendshipID]
	if !found {
		return puppet.NewBackendError("friendship not found: "+friendshipID, nil)
	}
	payload.Type = puppet.FriendshipTypeConfirm
	b.friendships[friendshipID] = payload

	return nil
}

// FriendshipAdd records an outgoing friendship request to contactID.
func (b *Backend) FriendshipAdd(_ context.Context, contactID string, hello string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, found := b.contacts[contactID]; !found {
		return puppet.NewBackendError("contact not found: "+contactID, nil)
	}

	friendshipID := uuid.NewString()
	b.friendships[friendshipID] = puppet.FriendshipPayload{
		ID:        friendshipID,
		ContactID: contactID,
		Hello:     hello,
		Timestamp: uint64(time.Now().Unix()),
		Type:      puppet.FriendshipTypeVerify,
	}

	return nil
}

// FriendshipSearchPhone returns the id of the contact carrying phone, or
// empty when nothing matches.
func (b *Backend) FriendshipSearchPhone(_ context.Context, phone string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, contactID := range sortedKeys(b.contacts) {
		for _, candidate := range b.contacts[contactID].Phone {
			if candidate == phone {
				return contactID, nil
			}
		}
	}

	return "", nil
}

// FriendshipSearchHandle returns the id of the contact with handle, or
// empty when nothing matches.
func (b *Backend) FriendshipSearchHandle(_ context.Context, handle string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, contactID := range sortedKeys(b.contacts) {
		if b.contacts[contactID].Handle == handle {
			return contactID, nil
		}
	}

	return "", nil
}

// sortedKeys returns map keys in ascending order for deterministic lists.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}
