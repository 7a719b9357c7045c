package bot

import (
	"context"
	"fmt"

	"puppetry/pkg/puppet"
)

// Message is one message entity bound to a session.
type Message struct {
	session Context
	id      string
	payload *puppet.MessagePayload
}

// NewMessage creates an unhydrated message entity for messageID.
func NewMessage(session Context, messageID string) *Message {
	return &Message{session: session, id: messageID}
}

// ID returns the message id.
func (m *Message) ID() string {
	return m.id
}

// Payload returns the loaded message record, or ErrNoPayload when the
// record never loaded.
func (m *Message) Payload() (puppet.MessagePayload, error) {
	if m.payload == nil {
		return puppet.MessagePayload{}, fmt.Errorf("message %s: %w", m.id, puppet.ErrNoPayload)
	}

	return *m.payload, nil
}

// Ready ensures the message record is loaded.
func (m *Message) Ready(ctx context.Context) error {
	if m.payload != nil {
		return nil
	}

	payload, err := m.session.Puppet().MessagePayload(ctx, m.id)
	if err != nil {
		return fmt.Errorf("message ready %s: %w", m.id, err)
	}
	m.payload = &payload

	return nil
}

// Text returns the message text, empty until loaded.
func (m *Message) Text() string {
	if m.payload == nil {
		return ""
	}

	return m.payload.Text
}

// Type returns the content kind, unknown until loaded.
func (m *Message) Type() puppet.MessageType {
	if m.payload == nil {
		return puppet.MessageTypeUnknown
	}

	return m.payload.Type
}

// Timestamp returns the message timestamp, zero until loaded.
func (m *Message) Timestamp() uint64 {
	if m.payload == nil {
		return 0
	}

	return m.payload.Timestamp
}

// From returns the sending contact as an unhydrated entity, or nil when
// unknown.
func (m *Message) From() *Contact {
	if m.payload == nil || m.payload.FromID == "" {
		return nil
	}

	return NewContact(m.session, m.payload.FromID)
}

// To returns the direct recipient as an unhydrated entity, or nil for
// room messages.
func (m *Message) To() *Contact {
	if m.payload == nil || m.payload.ToID == "" {
		return nil
	}

	return NewContact(m.session, m.payload.ToID)
}

// Room returns the room the message was posted in as an unhydrated
// entity, or nil for direct messages.
func (m *Message) Room() *Room {
	if m.payload == nil || m.payload.RoomID == "" {
		return nil
	}

	return NewRoom(m.session, m.payload.RoomID)
}

// MentionList returns the mentioned contacts as unhydrated entities.
func (m *Message) MentionList() []*Contact {
	if m.payload == nil {
		return nil
	}

	mentions := make([]*Contact, 0, len(m.payload.MentionIDList))
	for _, contactID := range m.payload.MentionIDList {
		mentions = append(mentions, NewContact(m.session, contactID))
	}

	return mentions
}

// SelfMentioned reports whether the logged-in account is mentioned.
func (m *Message) SelfMentioned() bool {
	selfID, ok := m.session.SelfID()
	if !ok || m.payload == nil {
		return false
	}

	for _, contactID := range m.payload.MentionIDList {
		if contactID == selfID {
			return true
		}
	}

	return false
}

// Conversation returns the id replies should target: the room for room
// messages, the sender otherwise.
func (m *Message) Conversation() string {
	if m.payload == nil {
		return ""
	}
	if m.payload.RoomID != "" {
		return m.payload.RoomID
	}

	return m.payload.FromID
}

// Reply sends text back into the conversation this message arrived in.
func (m *Message) Reply(ctx context.Context, text string) (*Message, error) {
	conversationID := m.Conversation()
	if conversationID == "" {
		return nil, fmt.Errorf("reply to message %s: %w", m.id, puppet.ErrNoPayload)
	}

	return sendText(ctx, m.session, conversationID, text, nil)
}

// Forward re-sends this message into conversationID. Only text and
// contact card messages can be forwarded; other kinds return
// ErrUnsupported.
func (m *Message) Forward(ctx context.Context, conversationID string) (*Message, error) {
	if m.payload == nil {
		return nil, fmt.Errorf("forward message %s: %w", m.id, puppet.ErrNoPayload)
	}

	switch m.payload.Type {
	case puppet.MessageTypeText:
		return sendText(ctx, m.session, conversationID, m.payload.Text, m.payload.MentionIDList)
	case puppet.MessageTypeContact:
		// A contact card message carries the shared contact id in its text.
		return sendContact(ctx, m.session, conversationID, m.payload.Text)
	default:
		return nil, fmt.Errorf("forward message %s of type %d: %w", m.id, m.payload.Type, puppet.ErrUnsupported)
	}
}

// Recall asks the backend to retract this message.
func (m *Message) Recall(ctx context.Context) (bool, error) {
	recalled, err := m.session.Puppet().Backend().MessageRecall(ctx, m.id)
	if err != nil {
		return false, fmt.Errorf("recall message %s: %w", m.id, err)
	}

	return recalled, nil
}
