package puppet

import "fmt"

// EventKind identifies the event family on the raw frame stream.
// The numeric values are the wire discriminants and must not be reordered.
type EventKind int32

const (
	EventKindUnspecified EventKind = 0
	EventKindHeartbeat   EventKind = 1
	EventKindMessage     EventKind = 2
	EventKindDong        EventKind = 3
	EventKindError       EventKind = 16
	EventKindFriendship  EventKind = 17
	EventKindRoomInvite  EventKind = 18
	EventKindRoomJoin    EventKind = 19
	EventKindRoomLeave   EventKind = 20
	EventKindRoomTopic   EventKind = 21
	EventKindScan        EventKind = 22
	EventKindReady       EventKind = 23
	EventKindReset       EventKind = 24
	EventKindLogin       EventKind = 25
	EventKindLogout      EventKind = 26
	EventKindDirty       EventKind = 27
)

// String returns a stable lowercase name for logs and error messages.
func (k EventKind) String() string {
	switch k {
	case EventKindUnspecified:
		return "unspecified"
	case EventKindHeartbeat:
		return "heartbeat"
	case EventKindMessage:
		return "message"
	case EventKindDong:
		return "dong"
	case EventKindError:
		return "error"
	case EventKindFriendship:
		return "friendship"
	case EventKindRoomInvite:
		return "room-invite"
	case EventKindRoomJoin:
		return "room-join"
	case EventKindRoomLeave:
		return "room-leave"
	case EventKindRoomTopic:
		return "room-topic"
	case EventKindScan:
		return "scan"
	case EventKindReady:
		return "ready"
	case EventKindReset:
		return "reset"
	case EventKindLogin:
		return "login"
	case EventKindLogout:
		return "logout"
	case EventKindDirty:
		return "dirty"
	default:
		return fmt.Sprintf("kind(%d)", int32(k))
	}
}

// ScanStatus is the lifecycle state of a login QR code.
type ScanStatus int32

const (
	ScanStatusUnknown ScanStatus = iota
	ScanStatusCancel
	ScanStatusWaiting
	ScanStatusScanned
	ScanStatusConfirmed
	ScanStatusTimeout
)

// DongEvent acknowledges a ding probe.
type DongEvent struct {
	Data string
}

// ErrorEvent carries an asynchronous backend-side failure description.
type ErrorEvent struct {
	Data string
}

// FriendshipEvent announces a new friendship record by id.
type FriendshipEvent struct {
	FriendshipID string
}

// HeartbeatEvent signals backend liveness.
type HeartbeatEvent struct {
	Data string
}

// LoginEvent announces that the session is now authenticated as ContactID.
type LoginEvent struct {
	ContactID string
}

// LogoutEvent announces the end of the authenticated session.
type LogoutEvent struct {
	ContactID string
	Data      string
}

// MessageEvent announces a newly received message by id.
type MessageEvent struct {
	MessageID string
}

// ReadyEvent signals that the backend finished its initial sync.
type ReadyEvent struct {
	Data string
}

// ResetEvent asks the SDK to restart its session state.
type ResetEvent struct {
	Data string
}

// RoomInviteEvent announces a pending room invitation by id.
type RoomInviteEvent struct {
	RoomInvitationID string
}

// RoomJoinEvent announces contacts entering a room.
type RoomJoinEvent struct {
	RoomID        string
	InviteeIDList []string
	InviterID     string
	Timestamp     uint64
}

// RoomLeaveEvent announces contacts leaving (or being removed from) a room.
type RoomLeaveEvent struct {
	RoomID        string
	RemoveeIDList []string
	RemoverID     string
	Timestamp     uint64
}

// RoomTopicEvent announces a room topic change.
type RoomTopicEvent struct {
	RoomID    string
	NewTopic  string
	OldTopic  string
	ChangerID string
	Timestamp uint64
}

// ScanEvent carries login QR code state. Status is mandatory on the wire;
// QRCode and Data may be empty.
type ScanEvent struct {
	Status ScanStatus
	QRCode string
	Data   string
}

// DirtyEvent asks the SDK to invalidate one cached payload.
type DirtyEvent struct {
	PayloadType PayloadType
	PayloadID   string
}

// Event is one decoded protocol event. Exactly the payload branch matching
// Kind is non-nil; all other branches are nil.
type Event struct {
	Kind EventKind

	Dong       *DongEvent
	Error      *ErrorEvent
	Friendship *FriendshipEvent
	Heartbeat  *HeartbeatEvent
	Login      *LoginEvent
	Logout     *LogoutEvent
	Message    *MessageEvent
	Ready      *ReadyEvent
	Reset      *ResetEvent
	RoomInvite *RoomInviteEvent
	RoomJoin   *RoomJoinEvent
	RoomLeave  *RoomLeaveEvent
	RoomTopic  *RoomTopicEvent
	Scan       *ScanEvent
	Dirty      *DirtyEvent
}

// Validate checks kind/payload consistency and per-kind required fields.
func (e *Event) Validate() error {
	if e == nil {
		return fmt.Errorf("validate event: nil event")
	}

	switch e.Kind {
	case EventKindDong:
		if e.Dong == nil {
			return fmt.Errorf("%w: dong event missing payload", ErrInvalidEvent)
		}
	case EventKindError:
		if e.Error == nil {
			return fmt.Errorf("%w: error event missing payload", ErrInvalidEvent)
		}
	case EventKindFriendship:
		if e.Friendship == nil || e.Friendship.FriendshipID == "" {
			return fmt.Errorf("%w: friendship event missing friendship id", ErrInvalidEvent)
		}
	case EventKindHeartbeat:
		if e.Heartbeat == nil {
			return fmt.Errorf("%w: heartbeat event missing payload", ErrInvalidEvent)
		}
	case EventKindLogin:
		if e.Login == nil || e.Login.ContactID == "" {
			return fmt.Errorf("%w: login event missing contact id", ErrInvalidEvent)
		}
	case EventKindLogout:
		if e.Logout == nil || e.Logout.ContactID == "" {
			return fmt.Errorf("%w: logout event missing contact id", ErrInvalidEvent)
		}
	case EventKindMessage:
		if e.Message == nil || e.Message.MessageID == "" {
			return fmt.Errorf("%w: message event missing message id", ErrInvalidEvent)
		}
	case EventKindReady:
		if e.Ready == nil {
			return fmt.Errorf("%w: ready event missing payload", ErrInvalidEvent)
		}
	case EventKindReset:
		if e.Reset == nil {
			return fmt.Errorf("%w: reset event missing payload", ErrInvalidEvent)
		}
	case EventKindRoomInvite:
		if e.RoomInvite == nil || e.RoomInvite.RoomInvitationID == "" {
			return fmt.Errorf("%w: room-invite event missing invitation id", ErrInvalidEvent)
		}
	case EventKindRoomJoin:
		if e.RoomJoin == nil || e.RoomJoin.RoomID == "" {
			return fmt.Errorf("%w: room-join event missing room id", ErrInvalidEvent)
		}
	case EventKindRoomLeave:
		if e.RoomLeave == nil || e.RoomLeave.RoomID == "" {
			return fmt.Errorf("%w: room-leave event missing room id", ErrInvalidEvent)
		}
	case EventKindRoomTopic:
		if e.RoomTopic == nil || e.RoomTopic.RoomID == "" {
			return fmt.Errorf("%w: room-topic event missing room id", ErrInvalidEvent)
		}
	case EventKindScan:
		if e.Scan == nil {
			return fmt.Errorf("%w: scan event missing payload", ErrInvalidEvent)
		}
	case EventKindDirty:
		if e.Dirty == nil || e.Dirty.PayloadID == "" {
			return fmt.Errorf("%w: dirty event missing payload id", ErrInvalidEvent)
		}
	case EventKindUnspecified:
		return fmt.Errorf("%w: unspecified event kind", ErrInvalidEvent)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEventKind, e.Kind)
	}

	return nil
}
