package bot

import (
	"context"
	"fmt"

	"puppetry/pkg/puppet"
)

// Contact is one contact entity bound to a session. Its payload is loaded
// lazily; accessors return zero values until Ready succeeds.
type Contact struct {
	session Context
	id      string
	payload *puppet.ContactPayload
}

// NewContact creates an unhydrated contact entity for contactID.
func NewContact(session Context, contactID string) *Contact {
	return &Contact{session: session, id: contactID}
}

// ID returns the contact id.
func (c *Contact) ID() string {
	return c.id
}

// Payload returns the loaded profile, or ErrNoPayload when the profile
// never loaded.
func (c *Contact) Payload() (puppet.ContactPayload, error) {
	if c.payload == nil {
		return puppet.ContactPayload{}, fmt.Errorf("contact %s: %w", c.id, puppet.ErrNoPayload)
	}

	return *c.payload, nil
}

// Ready ensures the profile is loaded. With forceSync the cached copy is
// discarded and refetched.
func (c *Contact) Ready(ctx context.Context, forceSync bool) error {
	if c.payload != nil && !forceSync {
		return nil
	}

	if forceSync {
		if err := c.session.Puppet().DirtyPayload(ctx, puppet.PayloadTypeContact, c.id); err != nil {
			return fmt.Errorf("contact ready %s: %w", c.id, err)
		}
	}

	payload, err := c.session.Puppet().ContactPayload(ctx, c.id)
	if err != nil {
		return fmt.Errorf("contact ready %s: %w", c.id, err)
	}
	c.payload = &payload

	return nil
}

// Sync discards the cached profile and refetches it.
func (c *Contact) Sync(ctx context.Context) error {
	return c.Ready(ctx, true)
}

// Name returns the profile name, empty until loaded.
func (c *Contact) Name() string {
	if c.payload == nil {
		return ""
	}

	return c.payload.Name
}

// Alias returns the profile alias, empty until loaded.
func (c *Contact) Alias() string {
	if c.payload == nil {
		return ""
	}

	return c.payload.Alias
}

// SetAlias updates the alias for this contact and refreshes the profile.
func (c *Contact) SetAlias(ctx context.Context, alias string) error {
	if err := c.session.Puppet().Backend().ContactAliasSet(ctx, c.id, alias); err != nil {
		return fmt.Errorf("contact set alias %s: %w", c.id, err)
	}

	return c.Sync(ctx)
}

// Avatar returns the avatar reference, empty until loaded.
func (c *Contact) Avatar() string {
	if c.payload == nil {
		return ""
	}

	return c.payload.Avatar
}

// Gender returns the declared gender, unknown until loaded.
func (c *Contact) Gender() puppet.ContactGender {
	if c.payload == nil {
		return puppet.ContactGenderUnknown
	}

	return c.payload.Gender
}

// Type returns the account type, unknown until loaded.
func (c *Contact) Type() puppet.ContactType {
	if c.payload == nil {
		return puppet.ContactTypeUnknown
	}

	return c.payload.Type
}

// Friend reports whether this contact is a confirmed friend.
func (c *Contact) Friend() bool {
	return c.payload != nil && c.payload.Friend
}

// Star reports whether this contact is starred.
func (c *Contact) Star() bool {
	return c.payload != nil && c.payload.Star
}

// Self reports whether this contact is the logged-in account.
func (c *Contact) Self() bool {
	selfID, ok := c.session.SelfID()

	return ok && selfID == c.id
}

// SendText sends a text message to this contact. A backend that reports
// success without a message id yields a nil message and a logged warning.
func (c *Contact) SendText(ctx context.Context, text string) (*Message, error) {
	return sendText(ctx, c.session, c.id, text, nil)
}

// SendContact sends a contact card to this contact.
func (c *Contact) SendContact(ctx context.Context, contact *Contact) (*Message, error) {
	return sendContact(ctx, c.session, c.id, contact.ID())
}

// ContactSelf is the logged-in account with its mutation capabilities.
type ContactSelf struct {
	*Contact
}

// SetName updates the account display name and refreshes the profile.
func (c *ContactSelf) SetName(ctx context.Context, name string) error {
	if err := c.session.requireLogin("set name"); err != nil {
		return err
	}

	if err := c.session.Puppet().Backend().ContactSelfName(ctx, name); err != nil {
		return fmt.Errorf("set name: %w", err)
	}

	return c.Sync(ctx)
}

// SetSignature updates the account signature and refreshes the profile.
func (c *ContactSelf) SetSignature(ctx context.Context, signature string) error {
	if err := c.session.requireLogin("set signature"); err != nil {
		return err
	}

	if err := c.session.Puppet().Backend().ContactSelfSignature(ctx, signature); err != nil {
		return fmt.Errorf("set signature: %w", err)
	}

	return c.Sync(ctx)
}

// QRCode returns the login QR code content of the account.
func (c *ContactSelf) QRCode(ctx context.Context) (string, error) {
	if err := c.session.requireLogin("self qr code"); err != nil {
		return "", err
	}

	qrcode, err := c.session.Puppet().Backend().ContactSelfQRCode(ctx)
	if err != nil {
		return "", fmt.Errorf("self qr code: %w", err)
	}

	return qrcode, nil
}

// sendText delivers text into conversationID and loads the resulting
// message entity.
func sendText(ctx context.Context, session Context, conversationID string, text string, mentionIDList []string) (*Message, error) {
	messageID, err := session.Puppet().Backend().MessageSendText(ctx, conversationID, text, mentionIDList)
	if err != nil {
		return nil, fmt.Errorf("send text to %s: %w", conversationID, err)
	}
	if messageID == "" {
		session.Logger().Warn("message sent without id", "conversation_id", conversationID)
		return nil, nil
	}

	return session.MessageLoad(ctx, messageID)
}

// sendContact delivers a contact card into conversationID and loads the
// resulting message entity.
func sendContact(ctx context.Context, session Context, conversationID string, contactID string) (*Message, error) {
	messageID, err := session.Puppet().Backend().MessageSendContact(ctx, conversationID, contactID)
	if err != nil {
		return nil, fmt.Errorf("send contact to %s: %w", conversationID, err)
	}
	if messageID == "" {
		session.Logger().Warn("message sent without id", "conversation_id", conversationID)
		return nil, nil
	}

	return session.MessageLoad(ctx, messageID)
}
