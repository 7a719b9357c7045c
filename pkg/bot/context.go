package bot

import (
	"context"
	"fmt"
	"log/slog"

	"puppetry/pkg/puppet"
)

// Context is the session handle handed to every event handler. It is a
// small value type; copies share the same puppet, identity and logger,
// so a handler may keep its copy for later use.
type Context struct {
	puppet   *puppet.Puppet
	identity *puppet.Identity
	logger   *slog.Logger
}

// NewContext creates a session handle over an existing puppet and identity.
func NewContext(p *puppet.Puppet, identity *puppet.Identity, logger *slog.Logger) Context {
	if logger == nil {
		logger = slog.Default()
	}

	return Context{puppet: p, identity: identity, logger: logger}
}

// Puppet exposes the cached puppet layer.
func (c Context) Puppet() *puppet.Puppet {
	return c.puppet
}

// Logger returns the session logger.
func (c Context) Logger() *slog.Logger {
	return c.logger
}

// SelfID returns the logged-in contact id and whether a session is active.
func (c Context) SelfID() (string, bool) {
	return c.identity.ID()
}

// LoggedIn reports whether the session is authenticated.
func (c Context) LoggedIn() bool {
	return c.identity.LoggedIn()
}

// requireLogin gates operations that only make sense inside an
// authenticated session.
func (c Context) requireLogin(op string) error {
	if !c.identity.LoggedIn() {
		return fmt.Errorf("%s: %w", op, puppet.ErrNotLoggedIn)
	}

	return nil
}

// ContactLoad returns the contact entity for contactID with its payload
// loaded. The entity is returned even when the load fails, so callers can
// fall back to an unhydrated entity.
func (c Context) ContactLoad(ctx context.Context, contactID string) (*Contact, error) {
	contact := NewContact(c, contactID)
	if err := contact.Ready(ctx, false); err != nil {
		return contact, err
	}

	return contact, nil
}

// ContactLoadBatch loads many contacts with bounded concurrency. Contacts
// whose payload could not be loaded are dropped.
func (c Context) ContactLoadBatch(ctx context.Context, contactIDList []string) []*Contact {
	payloads := c.puppet.ContactPayloadBatch(ctx, contactIDList)
	contacts := make([]*Contact, 0, len(payloads))
	for _, payload := range payloads {
		contact := NewContact(c, payload.ID)
		contact.payload = &payload
		contacts = append(contacts, contact)
	}

	return contacts
}

// ContactSelf returns the entity for the logged-in account.
func (c Context) ContactSelf(ctx context.Context) (*ContactSelf, error) {
	selfID, ok := c.identity.ID()
	if !ok {
		return nil, fmt.Errorf("contact self: %w", puppet.ErrNotLoggedIn)
	}

	contact, err := c.ContactLoad(ctx, selfID)
	if err != nil {
		return &ContactSelf{Contact: contact}, err
	}

	return &ContactSelf{Contact: contact}, nil
}

// ContactFind returns the first contact matching query, or nil when
// nothing matches.
func (c Context) ContactFind(ctx context.Context, query puppet.ContactQueryFilter) (*Contact, error) {
	contacts, err := c.ContactFindAll(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return nil, nil
	}

	return contacts[0], nil
}

// ContactFindAll returns every contact matching query.
func (c Context) ContactFindAll(ctx context.Context, query puppet.ContactQueryFilter) ([]*Contact, error) {
	if err := c.requireLogin("contact find"); err != nil {
		return nil, err
	}

	contactIDList, err := c.puppet.ContactSearch(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("contact find: %w", err)
	}

	return c.ContactLoadBatch(ctx, contactIDList), nil
}

// ContactFindByString returns every contact whose id or alias equals query.
func (c Context) ContactFindByString(ctx context.Context, query string) ([]*Contact, error) {
	if err := c.requireLogin("contact find"); err != nil {
		return nil, err
	}

	contactIDList, err := c.puppet.ContactSearchByString(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("contact find: %w", err)
	}

	return c.ContactLoadBatch(ctx, contactIDList), nil
}

// MessageLoad returns the message entity for messageID with its payload
// loaded. The entity is returned even when the load fails.
func (c Context) MessageLoad(ctx context.Context, messageID string) (*Message, error) {
	message := NewMessage(c, messageID)
	if err := message.Ready(ctx); err != nil {
		return message, err
	}

	return message, nil
}

// MessageFindAll returns every cached message matching query. Messages
// evicted from the bounded cache are not found.
func (c Context) MessageFindAll(ctx context.Context, query puppet.MessageQueryFilter) ([]*Message, error) {
	if err := c.requireLogin("message find"); err != nil {
		return nil, err
	}

	messageIDList, err := c.puppet.MessageSearch(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("message find: %w", err)
	}

	messages := make([]*Message, 0, len(messageIDList))
	for _, messageID := range messageIDList {
		message, err := c.MessageLoad(ctx, messageID)
		if err != nil {
			continue
		}
		messages = append(messages, message)
	}

	return messages, nil
}

// RoomLoad returns the room entity for roomID with its payload loaded.
// The entity is returned even when the load fails.
func (c Context) RoomLoad(ctx context.Context, roomID string) (*Room, error) {
	room := NewRoom(c, roomID)
	if err := room.Ready(ctx, false); err != nil {
		return room, err
	}

	return room, nil
}

// RoomFind returns the first room matching query, or nil when nothing
// matches.
func (c Context) RoomFind(ctx context.Context, query puppet.RoomQueryFilter) (*Room, error) {
	rooms, err := c.RoomFindAll(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return nil, nil
	}

	return rooms[0], nil
}

// RoomFindAll returns every room matching query.
func (c Context) RoomFindAll(ctx context.Context, query puppet.RoomQueryFilter) ([]*Room, error) {
	if err := c.requireLogin("room find"); err != nil {
		return nil, err
	}

	roomIDList, err := c.puppet.RoomSearch(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("room find: %w", err)
	}

	rooms := make([]*Room, 0, len(roomIDList))
	for _, roomID := range roomIDList {
		room, err := c.RoomLoad(ctx, roomID)
		if err != nil {
			continue
		}
		rooms = append(rooms, room)
	}

	return rooms, nil
}

// RoomCreate creates a room containing contacts and returns its entity.
// At least two contacts besides the logged-in account are required.
func (c Context) RoomCreate(ctx context.Context, contacts []*Contact, topic string) (*Room, error) {
	if err := c.requireLogin("room create"); err != nil {
		return nil, err
	}
	if len(contacts) < 2 {
		return nil, fmt.Errorf("room create: need at least two contacts: %w", puppet.ErrInvalidOperation)
	}

	contactIDList := make([]string, 0, len(contacts))
	for _, contact := range contacts {
		contactIDList = append(contactIDList, contact.ID())
	}

	roomID, err := c.puppet.Backend().RoomCreate(ctx, contactIDList, topic)
	if err != nil {
		return nil, fmt.Errorf("room create: %w", err)
	}

	return c.RoomLoad(ctx, roomID)
}

// FriendshipLoad returns the friendship entity for friendshipID with its
// payload loaded. The entity is returned even when the load fails.
func (c Context) FriendshipLoad(ctx context.Context, friendshipID string) (*Friendship, error) {
	friendship := NewFriendship(c, friendshipID)
	if err := friendship.Ready(ctx); err != nil {
		return friendship, err
	}

	return friendship, nil
}

// FriendshipAdd sends a friendship request to contact with greeting hello.
func (c Context) FriendshipAdd(ctx context.Context, contact *Contact, hello string) error {
	if err := c.requireLogin("friendship add"); err != nil {
		return err
	}

	if err := c.puppet.Backend().FriendshipAdd(ctx, contact.ID(), hello); err != nil {
		return fmt.Errorf("friendship add: %w", err)
	}

	return nil
}

// FriendshipSearch locates a contact eligible for a friendship request by
// phone or handle. A nil contact with a nil error means nothing matched.
func (c Context) FriendshipSearch(ctx context.Context, query puppet.FriendshipSearchQueryFilter) (*Contact, error) {
	if err := c.requireLogin("friendship search"); err != nil {
		return nil, err
	}

	contactID, err := c.puppet.FriendshipSearch(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("friendship search: %w", err)
	}
	if contactID == "" {
		return nil, nil
	}

	return c.ContactLoad(ctx, contactID)
}

// RoomInvitationLoad returns the invitation entity for roomInvitationID
// with its payload loaded. The entity is returned even when the load fails.
func (c Context) RoomInvitationLoad(ctx context.Context, roomInvitationID string) (*RoomInvitation, error) {
	invitation := NewRoomInvitation(c, roomInvitationID)
	if err := invitation.Ready(ctx); err != nil {
		return invitation, err
	}

	return invitation, nil
}

// Ding asks the backend to answer with a dong event echoing data.
func (c Context) Ding(ctx context.Context, data string) error {
	if err := c.puppet.Backend().Ding(ctx, data); err != nil {
		return fmt.Errorf("ding: %w", err)
	}

	return nil
}

// Logout ends the authenticated session.
func (c Context) Logout(ctx context.Context) error {
	if err := c.requireLogin("logout"); err != nil {
		return err
	}

	if err := c.puppet.Backend().Logout(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	return nil
}
