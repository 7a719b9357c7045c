package bot

import (
	"context"
	"fmt"

	"puppetry/pkg/puppet"
)

// RoomInvitation is one pending room invitation entity bound to a session.
type RoomInvitation struct {
	session Context
	id      string
	payload *puppet.RoomInvitationPayload
}

// NewRoomInvitation creates an unhydrated invitation entity for
// roomInvitationID.
func NewRoomInvitation(session Context, roomInvitationID string) *RoomInvitation {
	return &RoomInvitation{session: session, id: roomInvitationID}
}

// ID returns the invitation id.
func (i *RoomInvitation) ID() string {
	return i.id
}

// Payload returns the loaded invitation record, or ErrNoPayload when the
// record never loaded.
func (i *RoomInvitation) Payload() (puppet.RoomInvitationPayload, error) {
	if i.payload == nil {
		return puppet.RoomInvitationPayload{}, fmt.Errorf("room invitation %s: %w", i.id, puppet.ErrNoPayload)
	}

	return *i.payload, nil
}

// Ready ensures the invitation record is loaded.
func (i *RoomInvitation) Ready(ctx context.Context) error {
	if i.payload != nil {
		return nil
	}

	payload, err := i.session.Puppet().RoomInvitationPayload(ctx, i.id)
	if err != nil {
		return fmt.Errorf("room invitation ready %s: %w", i.id, err)
	}
	i.payload = &payload

	return nil
}

// Topic returns the topic of the inviting room, empty until loaded.
func (i *RoomInvitation) Topic() string {
	if i.payload == nil {
		return ""
	}

	return i.payload.Topic
}

// Inviter returns the inviting contact as an unhydrated entity, or nil
// when the record never loaded.
func (i *RoomInvitation) Inviter() *Contact {
	if i.payload == nil || i.payload.InviterID == "" {
		return nil
	}

	return NewContact(i.session, i.payload.InviterID)
}

// Accept joins the inviting room.
func (i *RoomInvitation) Accept(ctx context.Context) error {
	if err := i.session.Puppet().Backend().RoomInvitationAccept(ctx, i.id); err != nil {
		return fmt.Errorf("room invitation accept %s: %w", i.id, err)
	}

	return nil
}
