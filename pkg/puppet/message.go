package puppet

import "regexp"

// MessageType identifies the content kind of a message.
type MessageType int32

const (
	MessageTypeUnknown MessageType = iota
	MessageTypeAttachment
	MessageTypeAudio
	MessageTypeContact
	MessageTypeChatHistory
	MessageTypeEmoticon
	MessageTypeImage
	MessageTypeText
	MessageTypeLocation
	MessageTypeMiniProgram
	MessageTypeGroupNote
	MessageTypeTransfer
	MessageTypeRedEnvelope
	MessageTypeRecalled
	MessageTypeURL
	MessageTypeVideo
)

// MessagePayload is one message as observed on the wire.
type MessagePayload struct {
	ID            string
	Filename      string
	Text          string
	Timestamp     uint64
	Type          MessageType
	FromID        string
	MentionIDList []string
	RoomID        string
	ToID          string
}

// MessageQueryFilter narrows message searches over the cached message set.
// Nil fields are unconstrained; set fields must all match.
type MessageQueryFilter struct {
	ID        *string
	FromID    *string
	RoomID    *string
	Text      *string
	TextRegex *regexp.Regexp
	ToID      *string
	Type      *MessageType
}

// Match reports whether payload satisfies every constraint set on the filter.
func (f MessageQueryFilter) Match(payload MessagePayload) bool {
	if f.ID != nil && payload.ID != *f.ID {
		return false
	}
	if f.FromID != nil && payload.FromID != *f.FromID {
		return false
	}
	if f.RoomID != nil && payload.RoomID != *f.RoomID {
		return false
	}
	if f.Text != nil && payload.Text != *f.Text {
		return false
	}
	if f.TextRegex != nil && !f.TextRegex.MatchString(payload.Text) {
		return false
	}
	if f.ToID != nil && payload.ToID != *f.ToID {
		return false
	}
	if f.Type != nil && payload.Type != *f.Type {
		return false
	}

	return true
}
