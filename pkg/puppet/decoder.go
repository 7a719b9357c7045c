package puppet

import (
	"encoding/json"
	"fmt"
)

// rawEventBody is the superset of fields a raw frame body may carry.
// Pointer fields distinguish absent from zero-valued.
type rawEventBody struct {
	Data             *string   `json:"data"`
	ContactID        *string   `json:"contactId"`
	MessageID        *string   `json:"messageId"`
	FriendshipID     *string   `json:"friendshipId"`
	RoomInvitationID *string   `json:"roomInvitationId"`
	RoomID           *string   `json:"roomId"`
	InviteeIDList    []string  `json:"inviteeIdList"`
	InviterID        *string   `json:"inviterId"`
	RemoveeIDList    []string  `json:"removeeIdList"`
	RemoverID        *string   `json:"removerId"`
	NewTopic         *string   `json:"newTopic"`
	OldTopic         *string   `json:"oldTopic"`
	ChangerID        *string   `json:"changerId"`
	Timestamp        *uint64   `json:"timestamp"`
	Status           *int32    `json:"status"`
	QRCode           *string   `json:"qrcode"`
	PayloadType      *int32    `json:"payloadType"`
	PayloadID        *string   `json:"payloadId"`
}

// DecodeRawEvent converts one raw frame into a typed event, enforcing the
// per-kind required fields. Frames with discriminant zero decode to a nil
// event and should be ignored. Unknown discriminants and frames missing
// required fields yield an error and no event.
func DecodeRawEvent(frame RawEvent) (*Event, error) {
	kind := EventKind(frame.Type)
	if kind == EventKindUnspecified {
		return nil, nil
	}

	var body rawEventBody
	if len(frame.Payload) > 0 {
		if err := json.Unmarshal(frame.Payload, &body); err != nil {
			return nil, fmt.Errorf("decode %s frame: %w", kind, err)
		}
	}

	event := &Event{Kind: kind}
	switch kind {
	case EventKindHeartbeat:
		if body.Data == nil {
			return nil, fmt.Errorf("%w: heartbeat frame missing data", ErrInvalidEvent)
		}
		event.Heartbeat = &HeartbeatEvent{Data: *body.Data}
	case EventKindMessage:
		if body.MessageID == nil {
			return nil, fmt.Errorf("%w: message frame missing message id", ErrInvalidEvent)
		}
		event.Message = &MessageEvent{MessageID: *body.MessageID}
	case EventKindDong:
		if body.Data == nil {
			return nil, fmt.Errorf("%w: dong frame missing data", ErrInvalidEvent)
		}
		event.Dong = &DongEvent{Data: *body.Data}
	case EventKindError:
		if body.Data == nil {
			return nil, fmt.Errorf("%w: error frame missing data", ErrInvalidEvent)
		}
		event.Error = &ErrorEvent{Data: *body.Data}
	case EventKindFriendship:
		if body.FriendshipID == nil {
			return nil, fmt.Errorf("%w: friendship frame missing friendship id", ErrInvalidEvent)
		}
		event.Friendship = &FriendshipEvent{FriendshipID: *body.FriendshipID}
	case EventKindRoomInvite:
		if body.RoomInvitationID == nil {
			return nil, fmt.Errorf("%w: room-invite frame missing invitation id", ErrInvalidEvent)
		}
		event.RoomInvite = &RoomInviteEvent{RoomInvitationID: *body.RoomInvitationID}
	case EventKindRoomJoin:
		if body.RoomID == nil || body.InviteeIDList == nil || body.InviterID == nil || body.Timestamp == nil {
			return nil, fmt.Errorf("%w: room-join frame missing room id, invitee id list, inviter id or timestamp", ErrInvalidEvent)
		}
		event.RoomJoin = &RoomJoinEvent{
			RoomID:        *body.RoomID,
			InviteeIDList: body.InviteeIDList,
			InviterID:     *body.InviterID,
			Timestamp:     *body.Timestamp,
		}
	case EventKindRoomLeave:
		if body.RoomID == nil || body.RemoveeIDList == nil || body.RemoverID == nil || body.Timestamp == nil {
			return nil, fmt.Errorf("%w: room-leave frame missing room id, removee id list, remover id or timestamp", ErrInvalidEvent)
		}
		event.RoomLeave = &RoomLeaveEvent{
			RoomID:        *body.RoomID,
			RemoveeIDList: body.RemoveeIDList,
			RemoverID:     *body.RemoverID,
			Timestamp:     *body.Timestamp,
		}
	case EventKindRoomTopic:
		if body.RoomID == nil || body.ChangerID == nil || body.OldTopic == nil || body.NewTopic == nil || body.Timestamp == nil {
			return nil, fmt.Errorf("%w: room-topic frame missing room id, changer id, topics or timestamp", ErrInvalidEvent)
		}
		event.RoomTopic = &RoomTopicEvent{
			RoomID:    *body.RoomID,
			NewTopic:  *body.NewTopic,
			OldTopic:  *body.OldTopic,
			ChangerID: *body.ChangerID,
			Timestamp: *body.Timestamp,
		}
	case EventKindScan:
		if body.Status == nil {
			return nil, fmt.Errorf("%w: scan frame missing status", ErrInvalidEvent)
		}
		event.Scan = &ScanEvent{
			Status: ScanStatus(*body.Status),
			QRCode: stringOrEmpty(body.QRCode),
			Data:   stringOrEmpty(body.Data),
		}
	case EventKindReady:
		if body.Data == nil {
			return nil, fmt.Errorf("%w: ready frame missing data", ErrInvalidEvent)
		}
		event.Ready = &ReadyEvent{Data: *body.Data}
	case EventKindReset:
		if body.Data == nil {
			return nil, fmt.Errorf("%w: reset frame missing data", ErrInvalidEvent)
		}
		event.Reset = &ResetEvent{Data: *body.Data}
	case EventKindLogin:
		if body.ContactID == nil {
			return nil, fmt.Errorf("%w: login frame missing contact id", ErrInvalidEvent)
		}
		event.Login = &LoginEvent{ContactID: *body.ContactID}
	case EventKindLogout:
		if body.ContactID == nil || body.Data == nil {
			return nil, fmt.Errorf("%w: logout frame missing contact id or data", ErrInvalidEvent)
		}
		event.Logout = &LogoutEvent{ContactID: *body.ContactID, Data: *body.Data}
	case EventKindDirty:
		if body.PayloadType == nil || body.PayloadID == nil {
			return nil, fmt.Errorf("%w: dirty frame missing payload type or payload id", ErrInvalidEvent)
		}
		event.Dirty = &DirtyEvent{
			PayloadType: PayloadType(*body.PayloadType),
			PayloadID:   *body.PayloadID,
		}
	default:
		return nil, fmt.Errorf("%w: discriminant %d", ErrUnknownEventKind, frame.Type)
	}

	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("decode %s frame: %w", kind, err)
	}

	return event, nil
}

func stringOrEmpty(value *string) string {
	if value == nil {
		return ""
	}

	return *value
}
