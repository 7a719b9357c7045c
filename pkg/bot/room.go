package bot

import (
	"context"
	"fmt"

	"puppetry/pkg/puppet"
)

// Room is one group conversation entity bound to a session.
type Room struct {
	session Context
	id      string
	payload *puppet.RoomPayload
}

// NewRoom creates an unhydrated room entity for roomID.
func NewRoom(session Context, roomID string) *Room {
	return &Room{session: session, id: roomID}
}

// ID returns the room id.
func (r *Room) ID() string {
	return r.id
}

// Payload returns the loaded room record, or ErrNoPayload when the record
// never loaded.
func (r *Room) Payload() (puppet.RoomPayload, error) {
	if r.payload == nil {
		return puppet.RoomPayload{}, fmt.Errorf("room %s: %w", r.id, puppet.ErrNoPayload)
	}

	return *r.payload, nil
}

// Ready ensures the room record is loaded. With forceSync the cached copy
// is discarded and refetched together with its member entries.
func (r *Room) Ready(ctx context.Context, forceSync bool) error {
	if r.payload != nil && !forceSync {
		return nil
	}

	if forceSync {
		if err := r.session.Puppet().DirtyPayload(ctx, puppet.PayloadTypeRoom, r.id); err != nil {
			return fmt.Errorf("room ready %s: %w", r.id, err)
		}
	}

	payload, err := r.session.Puppet().RoomPayload(ctx, r.id)
	if err != nil {
		return fmt.Errorf("room ready %s: %w", r.id, err)
	}
	r.payload = &payload

	return nil
}

// Sync discards the cached room record and refetches it.
func (r *Room) Sync(ctx context.Context) error {
	return r.Ready(ctx, true)
}

// Topic returns the room topic, empty until loaded.
func (r *Room) Topic() string {
	if r.payload == nil {
		return ""
	}

	return r.payload.Topic
}

// SetTopic changes the room topic and refreshes the room record.
func (r *Room) SetTopic(ctx context.Context, topic string) error {
	if err := r.session.Puppet().Backend().RoomTopicSet(ctx, r.id, topic); err != nil {
		return fmt.Errorf("room set topic %s: %w", r.id, err)
	}

	return r.Sync(ctx)
}

// Announce returns the room announcement.
func (r *Room) Announce(ctx context.Context) (string, error) {
	text, err := r.session.Puppet().Backend().RoomAnnounce(ctx, r.id)
	if err != nil {
		return "", fmt.Errorf("room announce %s: %w", r.id, err)
	}

	return text, nil
}

// SetAnnounce replaces the room announcement.
func (r *Room) SetAnnounce(ctx context.Context, text string) error {
	if err := r.session.Puppet().Backend().RoomAnnounceSet(ctx, r.id, text); err != nil {
		return fmt.Errorf("room set announce %s: %w", r.id, err)
	}

	return nil
}

// QRCode returns the join QR code content for this room.
func (r *Room) QRCode(ctx context.Context) (string, error) {
	qrcode, err := r.session.Puppet().Backend().RoomQRCode(ctx, r.id)
	if err != nil {
		return "", fmt.Errorf("room qr code %s: %w", r.id, err)
	}

	return qrcode, nil
}

// Owner returns the room owner as an unhydrated entity, or nil when
// unknown.
func (r *Room) Owner() *Contact {
	if r.payload == nil || r.payload.OwnerID == "" {
		return nil
	}

	return NewContact(r.session, r.payload.OwnerID)
}

// MemberList returns every member of the room as loaded contact entities.
// Members whose payload could not be loaded are dropped.
func (r *Room) MemberList(ctx context.Context) ([]*Contact, error) {
	memberIDList, err := r.session.Puppet().Backend().RoomMemberList(ctx, r.id)
	if err != nil {
		return nil, fmt.Errorf("room member list %s: %w", r.id, err)
	}

	return r.session.ContactLoadBatch(ctx, memberIDList), nil
}

// MemberFindAll returns the contact ids of members matching query.
func (r *Room) MemberFindAll(ctx context.Context, query puppet.RoomMemberQueryFilter) ([]string, error) {
	memberIDList, err := r.session.Puppet().RoomMemberSearch(ctx, r.id, query)
	if err != nil {
		return nil, fmt.Errorf("room member find %s: %w", r.id, err)
	}

	return memberIDList, nil
}

// Alias returns contact's in-room alias, empty when the member record has
// none.
func (r *Room) Alias(ctx context.Context, contact *Contact) (string, error) {
	payload, err := r.session.Puppet().RoomMemberPayload(ctx, r.id, contact.ID())
	if err != nil {
		return "", fmt.Errorf("room alias %s: %w", r.id, err)
	}

	return payload.RoomAlias, nil
}

// Add invites contact into the room.
func (r *Room) Add(ctx context.Context, contact *Contact) error {
	if err := r.session.Puppet().Backend().RoomAdd(ctx, r.id, contact.ID()); err != nil {
		return fmt.Errorf("room add %s: %w", r.id, err)
	}

	return nil
}

// Remove removes contact from the room.
func (r *Room) Remove(ctx context.Context, contact *Contact) error {
	if err := r.session.Puppet().Backend().RoomDel(ctx, r.id, contact.ID()); err != nil {
		return fmt.Errorf("room remove %s: %w", r.id, err)
	}

	return nil
}

// Quit removes the logged-in account from the room.
func (r *Room) Quit(ctx context.Context) error {
	if err := r.session.requireLogin("room quit"); err != nil {
		return err
	}

	if err := r.session.Puppet().Backend().RoomQuit(ctx, r.id); err != nil {
		return fmt.Errorf("room quit %s: %w", r.id, err)
	}

	return nil
}

// SendText sends a text message into the room.
func (r *Room) SendText(ctx context.Context, text string) (*Message, error) {
	return sendText(ctx, r.session, r.id, text, nil)
}

// SendTextWithMentions sends a text message into the room mentioning
// contacts.
func (r *Room) SendTextWithMentions(ctx context.Context, text string, mentions []*Contact) (*Message, error) {
	mentionIDList := make([]string, 0, len(mentions))
	for _, contact := range mentions {
		mentionIDList = append(mentionIDList, contact.ID())
	}

	return sendText(ctx, r.session, r.id, text, mentionIDList)
}

// SendContact sends a contact card into the room.
func (r *Room) SendContact(ctx context.Context, contact *Contact) (*Message, error) {
	return sendContact(ctx, r.session, r.id, contact.ID())
}
