package bot

import (
	"context"
	"fmt"

	"puppetry/pkg/puppet"
)

// Friendship is one friendship request entity bound to a session.
type Friendship struct {
	session Context
	id      string
	payload *puppet.FriendshipPayload
}

// NewFriendship creates an unhydrated friendship entity for friendshipID.
func NewFriendship(session Context, friendshipID string) *Friendship {
	return &Friendship{session: session, id: friendshipID}
}

// ID returns the friendship id.
func (f *Friendship) ID() string {
	return f.id
}

// Payload returns the loaded friendship record, or ErrNoPayload when the
// record never loaded.
func (f *Friendship) Payload() (puppet.FriendshipPayload, error) {
	if f.payload == nil {
		return puppet.FriendshipPayload{}, fmt.Errorf("friendship %s: %w", f.id, puppet.ErrNoPayload)
	}

	return *f.payload, nil
}

// Ready ensures the friendship record is loaded.
func (f *Friendship) Ready(ctx context.Context) error {
	if f.payload != nil {
		return nil
	}

	payload, err := f.session.Puppet().FriendshipPayload(ctx, f.id)
	if err != nil {
		return fmt.Errorf("friendship ready %s: %w", f.id, err)
	}
	f.payload = &payload

	return nil
}

// Contact returns the requesting contact as an unhydrated entity, or nil
// when the record never loaded.
func (f *Friendship) Contact() *Contact {
	if f.payload == nil || f.payload.ContactID == "" {
		return nil
	}

	return NewContact(f.session, f.payload.ContactID)
}

// Hello returns the request greeting, empty until loaded.
func (f *Friendship) Hello() string {
	if f.payload == nil {
		return ""
	}

	return f.payload.Hello
}

// Type returns the request direction, unknown until loaded.
func (f *Friendship) Type() puppet.FriendshipType {
	if f.payload == nil {
		return puppet.FriendshipTypeUnknown
	}

	return f.payload.Type
}

// Accept confirms a received friendship request. Only records of type
// receive can be accepted. After the backend confirms, the requesting
// contact is synced; when its profile cannot be verified the accept
// outcome is unknown and an ErrMaybe-wrapped error is returned.
func (f *Friendship) Accept(ctx context.Context) error {
	if f.payload == nil {
		return fmt.Errorf("friendship accept %s: %w", f.id, puppet.ErrNoPayload)
	}
	if f.payload.Type != puppet.FriendshipTypeReceive {
		return fmt.Errorf("friendship accept %s: type %d: %w", f.id, f.payload.Type, puppet.ErrInvalidOperation)
	}

	if err := f.session.Puppet().Backend().FriendshipAccept(ctx, f.id); err != nil {
		return fmt.Errorf("friendship accept %s: %w", f.id, err)
	}

	contact := f.Contact()
	if contact == nil {
		return fmt.Errorf("friendship accept %s: no requesting contact: %w", f.id, puppet.ErrMaybe)
	}
	if err := contact.Sync(ctx); err != nil {
		f.session.Logger().Warn("friendship contact sync failed",
			"friendship_id", f.id,
			"contact_id", contact.ID(),
			"error", err)
	}
	if _, err := contact.Payload(); err != nil {
		return fmt.Errorf("friendship accept %s: contact %s unverified: %w", f.id, contact.ID(), puppet.ErrMaybe)
	}

	return nil
}
