package bot

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"puppetry/pkg/puppet"
)

// Handler processes one event payload within a session.
type Handler[P any] func(ctx context.Context, payload P, session Context) error

// handlerEntry pairs a handler with its remaining invocation budget.
// math.MaxUint64 stands in for unbounded.
type handlerEntry[P any] struct {
	fn        Handler[P]
	remaining uint64
}

// handlerList is one ordered, counted handler chain for a single event
// kind. Entries are never removed; an exhausted entry is skipped.
type handlerList[P any] struct {
	mu      sync.Mutex
	entries []*handlerEntry[P]
}

// register appends a handler with limit invocations, unbounded when limit
// is zero.
func (l *handlerList[P]) register(fn Handler[P], limit uint64) {
	if fn == nil {
		return
	}
	if limit == 0 {
		limit = math.MaxUint64
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, &handlerEntry[P]{fn: fn, remaining: limit})
}

// dispatch invokes each registered handler in order, decrementing its
// budget. Handler errors are logged and do not stop the chain.
func (l *handlerList[P]) dispatch(ctx context.Context, payload P, session Context, kind puppet.EventKind) {
	l.mu.Lock()
	entries := make([]*handlerEntry[P], len(l.entries))
	copy(entries, l.entries)
	l.mu.Unlock()

	for idx, entry := range entries {
		l.mu.Lock()
		exhausted := entry.remaining == 0
		if !exhausted {
			entry.remaining--
		}
		l.mu.Unlock()
		if exhausted {
			continue
		}

		if err := entry.fn(ctx, payload, session); err != nil {
			session.Logger().Error("event handler failed",
				"kind", kind,
				"handler_index", idx,
				"error", err)
		}
	}
}

// Listener owns the per-kind handler chains of one bot and hydrates raw
// event ids into entities before invoking them.
type Listener struct {
	name    string
	session Context
	logger  *slog.Logger

	dong       handlerList[DongPayload]
	errored    handlerList[ErrorPayload]
	friendship handlerList[FriendshipPayload]
	heartbeat  handlerList[HeartbeatPayload]
	login      handlerList[LoginPayload]
	logout     handlerList[LogoutPayload]
	message    handlerList[MessagePayload]
	ready      handlerList[ReadyPayload]
	reset      handlerList[ResetPayload]
	roomInvite handlerList[RoomInvitePayload]
	roomJoin   handlerList[RoomJoinPayload]
	roomLeave  handlerList[RoomLeavePayload]
	roomTopic  handlerList[RoomTopicPayload]
	scan       handlerList[ScanPayload]
}

// NewListener creates an empty listener for session.
func NewListener(name string, session Context) *Listener {
	return &Listener{
		name:    name,
		session: session,
		logger:  session.Logger(),
	}
}

// Name returns the subscriber name the listener registers under.
func (l *Listener) Name() string {
	return l.name
}

// OnDong registers an unbounded dong handler.
func (l *Listener) OnDong(fn Handler[DongPayload]) *Listener {
	return l.OnDongWithLimit(fn, 0)
}

// OnDongWithLimit registers a dong handler invoked at most limit times;
// zero means unbounded.
func (l *Listener) OnDongWithLimit(fn Handler[DongPayload], limit uint64) *Listener {
	l.dong.register(fn, limit)

	return l
}

// OnError registers an unbounded error handler.
func (l *Listener) OnError(fn Handler[ErrorPayload]) *Listener {
	return l.OnErrorWithLimit(fn, 0)
}

// OnErrorWithLimit registers an error handler invoked at most limit
// times; zero means unbounded.
func (l *Listener) OnErrorWithLimit(fn Handler[ErrorPayload], limit uint64) *Listener {
	l.errored.register(fn, limit)

	return l
}

// OnFriendship registers an unbounded friendship handler.
func (l *Listener) OnFriendship(fn Handler[FriendshipPayload]) *Listener {
	return l.OnFriendshipWithLimit(fn, 0)
}

// OnFriendshipWithLimit registers a friendship handler invoked at most
// limit times; zero means unbounded.
func (l *Listener) OnFriendshipWithLimit(fn Handler[FriendshipPayload], limit uint64) *Listener {
	l.friendship.register(fn, limit)

	return l
}

// OnHeartbeat registers an unbounded heartbeat handler.
func (l *Listener) OnHeartbeat(fn Handler[HeartbeatPayload]) *Listener {
	return l.OnHeartbeatWithLimit(fn, 0)
}

// OnHeartbeatWithLimit registers a heartbeat handler invoked at most
// limit times; zero means unbounded.
func (l *Listener) OnHeartbeatWithLimit(fn Handler[HeartbeatPayload], limit uint64) *Listener {
	l.heartbeat.register(fn, limit)

	return l
}

// OnLogin registers an unbounded login handler.
func (l *Listener) OnLogin(fn Handler[LoginPayload]) *Listener {
	return l.OnLoginWithLimit(fn, 0)
}

// OnLoginWithLimit registers a login handler invoked at most limit times;
// zero means unbounded.
func (l *Listener) OnLoginWithLimit(fn Handler[LoginPayload], limit uint64) *Listener {
	l.login.register(fn, limit)

	return l
}

// OnLogout registers an unbounded logout handler.
func (l *Listener) OnLogout(fn Handler[LogoutPayload]) *Listener {
	return l.OnLogoutWithLimit(fn, 0)
}

// OnLogoutWithLimit registers a logout handler invoked at most limit
// times; zero means unbounded.
func (l *Listener) OnLogoutWithLimit(fn Handler[LogoutPayload], limit uint64) *Listener {
	l.logout.register(fn, limit)

	return l
}

// OnMessage registers an unbounded message handler.
func (l *Listener) OnMessage(fn Handler[MessagePayload]) *Listener {
	return l.OnMessageWithLimit(fn, 0)
}

// OnMessageWithLimit registers a message handler invoked at most limit
// times; zero means unbounded.
func (l *Listener) OnMessageWithLimit(fn Handler[MessagePayload], limit uint64) *Listener {
	l.message.register(fn, limit)

	return l
}

// OnReady registers an unbounded ready handler.
func (l *Listener) OnReady(fn Handler[ReadyPayload]) *Listener {
	return l.OnReadyWithLimit(fn, 0)
}

// OnReadyWithLimit registers a ready handler invoked at most limit times;
// zero means unbounded.
func (l *Listener) OnReadyWithLimit(fn Handler[ReadyPayload], limit uint64) *Listener {
	l.ready.register(fn, limit)

	return l
}

// OnReset registers an unbounded reset handler.
func (l *Listener) OnReset(fn Handler[ResetPayload]) *Listener {
	return l.OnResetWithLimit(fn, 0)
}

// OnResetWithLimit registers a reset handler invoked at most limit times;
// zero means unbounded.
func (l *Listener) OnResetWithLimit(fn Handler[ResetPayload], limit uint64) *Listener {
	l.reset.register(fn, limit)

	return l
}

// OnRoomInvite registers an unbounded room invitation handler.
func (l *Listener) OnRoomInvite(fn Handler[RoomInvitePayload]) *Listener {
	return l.OnRoomInviteWithLimit(fn, 0)
}

// OnRoomInviteWithLimit registers a room invitation handler invoked at
// most limit times; zero means unbounded.
func (l *Listener) OnRoomInviteWithLimit(fn Handler[RoomInvitePayload], limit uint64) *Listener {
	l.roomInvite.register(fn, limit)

	return l
}

// OnRoomJoin registers an unbounded room join handler.
func (l *Listener) OnRoomJoin(fn Handler[RoomJoinPayload]) *Listener {
	return l.OnRoomJoinWithLimit(fn, 0)
}

// OnRoomJoinWithLimit registers a room join handler invoked at most limit
// times; zero means unbounded.
func (l *Listener) OnRoomJoinWithLimit(fn Handler[RoomJoinPayload], limit uint64) *Listener {
	l.roomJoin.register(fn, limit)

	return l
}

// OnRoomLeave registers an unbounded room leave handler.
func (l *Listener) OnRoomLeave(fn Handler[RoomLeavePayload]) *Listener {
	return l.OnRoomLeaveWithLimit(fn, 0)
}

// OnRoomLeaveWithLimit registers a room leave handler invoked at most
// limit times; zero means unbounded.
func (l *Listener) OnRoomLeaveWithLimit(fn Handler[RoomLeavePayload], limit uint64) *Listener {
	l.roomLeave.register(fn, limit)

	return l
}

// OnRoomTopic registers an unbounded room topic handler.
func (l *Listener) OnRoomTopic(fn Handler[RoomTopicPayload]) *Listener {
	return l.OnRoomTopicWithLimit(fn, 0)
}

// OnRoomTopicWithLimit registers a room topic handler invoked at most
// limit times; zero means unbounded.
func (l *Listener) OnRoomTopicWithLimit(fn Handler[RoomTopicPayload], limit uint64) *Listener {
	l.roomTopic.register(fn, limit)

	return l
}

// OnScan registers an unbounded scan handler.
func (l *Listener) OnScan(fn Handler[ScanPayload]) *Listener {
	return l.OnScanWithLimit(fn, 0)
}

// OnScanWithLimit registers a scan handler invoked at most limit times;
// zero means unbounded.
func (l *Listener) OnScanWithLimit(fn Handler[ScanPayload], limit uint64) *Listener {
	l.scan.register(fn, limit)

	return l
}

// HandleEvent hydrates one typed event and runs the matching handler
// chain. It implements puppet.EventConsumer.
func (l *Listener) HandleEvent(ctx context.Context, event *puppet.Event) error {
	switch event.Kind {
	case puppet.EventKindDong:
		l.dong.dispatch(ctx, DongPayload{Data: event.Dong.Data}, l.session, event.Kind)
	case puppet.EventKindError:
		l.errored.dispatch(ctx, ErrorPayload{Data: event.Error.Data}, l.session, event.Kind)
	case puppet.EventKindFriendship:
		payload := FriendshipPayload{Friendship: l.loadFriendship(ctx, event.Friendship.FriendshipID)}
		l.friendship.dispatch(ctx, payload, l.session, event.Kind)
	case puppet.EventKindHeartbeat:
		l.heartbeat.dispatch(ctx, HeartbeatPayload{Data: event.Heartbeat.Data}, l.session, event.Kind)
	case puppet.EventKindLogin:
		payload := LoginPayload{Contact: &ContactSelf{Contact: l.loadContact(ctx, event.Login.ContactID)}}
		l.login.dispatch(ctx, payload, l.session, event.Kind)
	case puppet.EventKindLogout:
		payload := LogoutPayload{
			Contact: l.loadContact(ctx, event.Logout.ContactID),
			Data:    event.Logout.Data,
		}
		l.logout.dispatch(ctx, payload, l.session, event.Kind)
	case puppet.EventKindMessage:
		payload := MessagePayload{Message: l.loadMessage(ctx, event.Message.MessageID)}
		l.message.dispatch(ctx, payload, l.session, event.Kind)
	case puppet.EventKindReady:
		l.ready.dispatch(ctx, ReadyPayload{Data: event.Ready.Data}, l.session, event.Kind)
	case puppet.EventKindReset:
		l.reset.dispatch(ctx, ResetPayload{Data: event.Reset.Data}, l.session, event.Kind)
	case puppet.EventKindRoomInvite:
		payload := RoomInvitePayload{RoomInvitation: l.loadRoomInvitation(ctx, event.RoomInvite.RoomInvitationID)}
		l.roomInvite.dispatch(ctx, payload, l.session, event.Kind)
	case puppet.EventKindRoomJoin:
		payload := RoomJoinPayload{
			Room:      l.loadRoom(ctx, event.RoomJoin.RoomID),
			Invitees:  l.loadContacts(ctx, event.RoomJoin.InviteeIDList),
			Inviter:   l.loadContact(ctx, event.RoomJoin.InviterID),
			Timestamp: event.RoomJoin.Timestamp,
		}
		l.roomJoin.dispatch(ctx, payload, l.session, event.Kind)
	case puppet.EventKindRoomLeave:
		payload := RoomLeavePayload{
			Room:      l.loadRoom(ctx, event.RoomLeave.RoomID),
			Removees:  l.loadContacts(ctx, event.RoomLeave.RemoveeIDList),
			Remover:   l.loadContact(ctx, event.RoomLeave.RemoverID),
			Timestamp: event.RoomLeave.Timestamp,
		}
		l.roomLeave.dispatch(ctx, payload, l.session, event.Kind)
		l.cleanupAfterSelfLeave(ctx, event.RoomLeave)
	case puppet.EventKindRoomTopic:
		payload := RoomTopicPayload{
			Room:      l.loadRoom(ctx, event.RoomTopic.RoomID),
			NewTopic:  event.RoomTopic.NewTopic,
			OldTopic:  event.RoomTopic.OldTopic,
			Changer:   l.loadContact(ctx, event.RoomTopic.ChangerID),
			Timestamp: event.RoomTopic.Timestamp,
		}
		l.roomTopic.dispatch(ctx, payload, l.session, event.Kind)
	case puppet.EventKindScan:
		payload := ScanPayload{
			Status: event.Scan.Status,
			QRCode: event.Scan.QRCode,
			Data:   event.Scan.Data,
		}
		l.scan.dispatch(ctx, payload, l.session, event.Kind)
	}

	return nil
}

// cleanupAfterSelfLeave invalidates the room and its member entries when
// the logged-in account is among the removed contacts.
func (l *Listener) cleanupAfterSelfLeave(ctx context.Context, event *puppet.RoomLeaveEvent) {
	selfID, ok := l.session.SelfID()
	if !ok {
		return
	}

	for _, contactID := range event.RemoveeIDList {
		if contactID != selfID {
			continue
		}
		if err := l.session.Puppet().DirtyPayload(ctx, puppet.PayloadTypeRoom, event.RoomID); err != nil {
			l.logger.Warn("room cleanup after leave failed",
				"room_id", event.RoomID,
				"error", err)
		}

		return
	}
}

// loadContact hydrates a contact, degrading to an entity without payload
// on failure. An empty id yields an unhydrated entity for an empty
// contact.
func (l *Listener) loadContact(ctx context.Context, contactID string) *Contact {
	if contactID == "" {
		return NewContact(l.session, contactID)
	}

	contact, err := l.session.ContactLoad(ctx, contactID)
	if err != nil {
		l.logger.Warn("contact hydration failed",
			"contact_id", contactID,
			"error", err)
	}

	return contact
}

// loadContacts hydrates many contacts, keeping unhydrated entities for
// ids whose load failed so handler payload shapes stay stable.
func (l *Listener) loadContacts(ctx context.Context, contactIDList []string) []*Contact {
	contacts := make([]*Contact, 0, len(contactIDList))
	for _, contactID := range contactIDList {
		contacts = append(contacts, l.loadContact(ctx, contactID))
	}

	return contacts
}

// loadMessage hydrates a message, degrading to an entity without payload
// on failure.
func (l *Listener) loadMessage(ctx context.Context, messageID string) *Message {
	message, err := l.session.MessageLoad(ctx, messageID)
	if err != nil {
		l.logger.Warn("message hydration failed",
			"message_id", messageID,
			"error", err)
	}

	return message
}

// loadRoom hydrates a room, degrading to an entity without payload on
// failure.
func (l *Listener) loadRoom(ctx context.Context, roomID string) *Room {
	room, err := l.session.RoomLoad(ctx, roomID)
	if err != nil {
		l.logger.Warn("room hydration failed",
			"room_id", roomID,
			"error", err)
	}

	return room
}

// loadFriendship hydrates a friendship, degrading to an entity without
// payload on failure.
func (l *Listener) loadFriendship(ctx context.Context, friendshipID string) *Friendship {
	friendship, err := l.session.FriendshipLoad(ctx, friendshipID)
	if err != nil {
		l.logger.Warn("friendship hydration failed",
			"friendship_id", friendshipID,
			"error", err)
	}

	return friendship
}

// loadRoomInvitation hydrates an invitation, degrading to an entity
// without payload on failure.
func (l *Listener) loadRoomInvitation(ctx context.Context, roomInvitationID string) *RoomInvitation {
	invitation, err := l.session.RoomInvitationLoad(ctx, roomInvitationID)
	if err != nil {
		l.logger.Warn("room invitation hydration failed",
			"room_invitation_id", roomInvitationID,
			"error", err)
	}

	return invitation
}
