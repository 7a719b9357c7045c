package bot_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"

	"puppetry/pkg/bot"
	"puppetry/pkg/mock"
	"puppetry/pkg/puppet"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestBot(t *testing.T) (*bot.Bot, *mock.Backend) {
	t.Helper()

	backend := mock.NewBackend()
	session, err := bot.New(backend, bot.WithName("test-bot"))
	if err != nil {
		t.Fatalf("new bot: %v", err)
	}

	return session, backend
}

// login drives a login frame through the dispatcher synchronously.
func login(t *testing.T, session *bot.Bot, backend *mock.Backend, contactID string) {
	t.Helper()

	backend.AddContact(puppet.ContactPayload{ID: contactID, Name: "Self"})
	session.Dispatcher().Dispatch(context.Background(), rawJSON(t, puppet.EventKindLogin,
		`{"contactId":"`+contactID+`"}`))
	if !session.Context().LoggedIn() {
		t.Fatal("session not logged in after login frame")
	}
}

func rawJSON(t *testing.T, kind puppet.EventKind, body string) puppet.RawEvent {
	t.Helper()

	return puppet.RawEvent{Type: int32(kind), Payload: []byte(body)}
}

func TestHandlerWithLimitInvokedExactlyThatManyTimes(t *testing.T) {
	t.Parallel()

	session, _ := newTestBot(t)

	calls := 0
	session.OnDongWithLimit(func(context.Context, bot.DongPayload, bot.Context) error {
		calls++

		return nil
	}, 2)

	for round := 0; round < 4; round++ {
		session.Dispatcher().Dispatch(context.Background(), rawJSON(t, puppet.EventKindDong, `{"data":"x"}`))
	}

	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestHandlersRunInRegistrationOrder(t *testing.T) {
	t.Parallel()

	session, _ := newTestBot(t)

	var order []string
	session.OnDong(func(context.Context, bot.DongPayload, bot.Context) error {
		order = append(order, "first")

		return nil
	}).OnDong(func(context.Context, bot.DongPayload, bot.Context) error {
		order = append(order, "second")

		return nil
	})

	session.Dispatcher().Dispatch(context.Background(), rawJSON(t, puppet.EventKindDong, `{"data":"x"}`))

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("order = %v, want [first second]", order)
	}
}

func TestHandlerErrorDoesNotStopChain(t *testing.T) {
	t.Parallel()

	session, _ := newTestBot(t)

	reached := false
	session.OnDong(func(context.Context, bot.DongPayload, bot.Context) error {
		return errors.New("first handler failed")
	}).OnDong(func(context.Context, bot.DongPayload, bot.Context) error {
		reached = true

		return nil
	})

	session.Dispatcher().Dispatch(context.Background(), rawJSON(t, puppet.EventKindDong, `{"data":"x"}`))

	if !reached {
		t.Fatal("second handler never ran")
	}
}

func TestLoginHandlerReceivesHydratedSelf(t *testing.T) {
	t.Parallel()

	session, backend := newTestBot(t)
	backend.AddContact(puppet.ContactPayload{ID: "contact-self", Name: "Selfie"})

	var observedName string
	var observedLoggedIn bool
	session.OnLogin(func(_ context.Context, payload bot.LoginPayload, botCtx bot.Context) error {
		observedName = payload.Contact.Name()
		observedLoggedIn = botCtx.LoggedIn()

		return nil
	})

	session.Dispatcher().Dispatch(context.Background(), rawJSON(t, puppet.EventKindLogin,
		`{"contactId":"contact-self"}`))

	if observedName != "Selfie" {
		t.Fatalf("observed name = %q, want Selfie", observedName)
	}
	if !observedLoggedIn {
		t.Fatal("handler observed a logged-out session")
	}
}

func TestMessageHydrationDegradesToEntityWithoutPayload(t *testing.T) {
	t.Parallel()

	session, _ := newTestBot(t)

	var observed *bot.Message
	session.OnMessage(func(_ context.Context, payload bot.MessagePayload, _ bot.Context) error {
		observed = payload.Message

		return nil
	})

	session.Dispatcher().Dispatch(context.Background(), rawJSON(t, puppet.EventKindMessage,
		`{"messageId":"msg-unknown"}`))

	if observed == nil || observed.ID() != "msg-unknown" {
		t.Fatalf("observed = %+v, want entity for msg-unknown", observed)
	}
	if _, err := observed.Payload(); !errors.Is(err, puppet.ErrNoPayload) {
		t.Fatalf("payload err = %v, want ErrNoPayload", err)
	}
}

func TestRoomLeaveOfSelfInvalidatesRoomCaches(t *testing.T) {
	t.Parallel()

	session, backend := newTestBot(t)
	login(t, session, backend, "contact-self")
	backend.AddRoom(puppet.RoomPayload{
		ID:           "room-1",
		Topic:        "tea",
		MemberIDList: []string{"contact-self", "contact-bob"},
	})
	backend.AddRoomMember("room-1", puppet.RoomMemberPayload{ID: "contact-self", Name: "Self"})
	backend.AddRoomMember("room-1", puppet.RoomMemberPayload{ID: "contact-bob", Name: "Bob"})

	botCtx := session.Context()
	if _, err := botCtx.RoomLoad(context.Background(), "room-1"); err != nil {
		t.Fatalf("warm room cache: %v", err)
	}
	if _, err := botCtx.Puppet().RoomMemberPayload(context.Background(), "room-1", "contact-bob"); err != nil {
		t.Fatalf("warm member cache: %v", err)
	}

	handled := false
	session.OnRoomLeave(func(_ context.Context, payload bot.RoomLeavePayload, _ bot.Context) error {
		handled = true
		if payload.Room.ID() != "room-1" {
			t.Errorf("room id = %q, want room-1", payload.Room.ID())
		}

		return nil
	})

	session.Dispatcher().Dispatch(context.Background(), rawJSON(t, puppet.EventKindRoomLeave,
		`{"roomId":"room-1","removeeIdList":["contact-self"],"removerId":"contact-bob","timestamp":42}`))

	if !handled {
		t.Fatal("room leave handler never ran")
	}

	roomFetches := backend.Fetches("room", "room-1")
	if _, err := botCtx.Puppet().RoomPayload(context.Background(), "room-1"); err != nil {
		t.Fatalf("reload room: %v", err)
	}
	if backend.Fetches("room", "room-1") != roomFetches+1 {
		t.Fatal("room payload still cached after self leave")
	}

	memberFetches := backend.Fetches("room-member", "contact-bob@room-1")
	if _, err := botCtx.Puppet().RoomMemberPayload(context.Background(), "room-1", "contact-bob"); err != nil {
		t.Fatalf("reload member: %v", err)
	}
	if backend.Fetches("room-member", "contact-bob@room-1") != memberFetches+1 {
		t.Fatal("room member payload still cached after self leave")
	}
}

func TestRoomLeaveOfOthersKeepsRoomCached(t *testing.T) {
	t.Parallel()

	session, backend := newTestBot(t)
	login(t, session, backend, "contact-self")
	backend.AddRoom(puppet.RoomPayload{
		ID:           "room-1",
		Topic:        "tea",
		MemberIDList: []string{"contact-self", "contact-bob"},
	})
	backend.AddRoomMember("room-1", puppet.RoomMemberPayload{ID: "contact-self", Name: "Self"})
	backend.AddRoomMember("room-1", puppet.RoomMemberPayload{ID: "contact-bob", Name: "Bob"})

	botCtx := session.Context()
	if _, err := botCtx.RoomLoad(context.Background(), "room-1"); err != nil {
		t.Fatalf("warm room cache: %v", err)
	}

	session.Dispatcher().Dispatch(context.Background(), rawJSON(t, puppet.EventKindRoomLeave,
		`{"roomId":"room-1","removeeIdList":["contact-bob"],"removerId":"contact-self","timestamp":42}`))

	roomFetches := backend.Fetches("room", "room-1")
	if _, err := botCtx.Puppet().RoomPayload(context.Background(), "room-1"); err != nil {
		t.Fatalf("reload room: %v", err)
	}
	if backend.Fetches("room", "room-1") != roomFetches {
		t.Fatal("room payload refetched although the bot did not leave")
	}
}

func TestContextGatesOperationsWhenLoggedOut(t *testing.T) {
	t.Parallel()

	session, _ := newTestBot(t)
	botCtx := session.Context()

	if _, err := botCtx.ContactFindAll(context.Background(), puppet.ContactQueryFilter{}); !errors.Is(err, puppet.ErrNotLoggedIn) {
		t.Fatalf("contact find err = %v, want ErrNotLoggedIn", err)
	}
	if _, err := botCtx.RoomFindAll(context.Background(), puppet.RoomQueryFilter{}); !errors.Is(err, puppet.ErrNotLoggedIn) {
		t.Fatalf("room find err = %v, want ErrNotLoggedIn", err)
	}
	if _, err := botCtx.RoomCreate(context.Background(), nil, "topic"); !errors.Is(err, puppet.ErrNotLoggedIn) {
		t.Fatalf("room create err = %v, want ErrNotLoggedIn", err)
	}
	if err := botCtx.Logout(context.Background()); !errors.Is(err, puppet.ErrNotLoggedIn) {
		t.Fatalf("logout err = %v, want ErrNotLoggedIn", err)
	}
	if _, err := botCtx.FriendshipSearch(context.Background(), puppet.FriendshipSearchQueryFilter{}); !errors.Is(err, puppet.ErrNotLoggedIn) {
		t.Fatalf("friendship search err = %v, want ErrNotLoggedIn", err)
	}
}

func TestRoomCreateRequiresTwoContacts(t *testing.T) {
	t.Parallel()

	session, backend := newTestBot(t)
	login(t, session, backend, "contact-self")

	alice := bot.NewContact(session.Context(), "contact-alice")
	_, err := session.Context().RoomCreate(context.Background(), []*bot.Contact{alice}, "tea")
	if !errors.Is(err, puppet.ErrInvalidOperation) {
		t.Fatalf("err = %v, want ErrInvalidOperation", err)
	}
}

func TestFriendshipAcceptRequiresReceiveType(t *testing.T) {
	t.Parallel()

	session, backend := newTestBot(t)
	backend.AddFriendship(puppet.FriendshipPayload{
		ID:        "friendship-1",
		ContactID: "contact-1",
		Type:      puppet.FriendshipTypeConfirm,
	})

	friendship, err := session.Context().FriendshipLoad(context.Background(), "friendship-1")
	if err != nil {
		t.Fatalf("friendship load: %v", err)
	}
	if err := friendship.Accept(context.Background()); !errors.Is(err, puppet.ErrInvalidOperation) {
		t.Fatalf("err = %v, want ErrInvalidOperation", err)
	}
}

func TestFriendshipAcceptVerifiesRequestingContact(t *testing.T) {
	t.Parallel()

	session, backend := newTestBot(t)
	backend.AddContact(puppet.ContactPayload{ID: "contact-1", Name: "Alice"})
	backend.AddFriendship(puppet.FriendshipPayload{
		ID:        "friendship-1",
		ContactID: "contact-1",
		Type:      puppet.FriendshipTypeReceive,
	})

	friendship, err := session.Context().FriendshipLoad(context.Background(), "friendship-1")
	if err != nil {
		t.Fatalf("friendship load: %v", err)
	}
	if err := friendship.Accept(context.Background()); err != nil {
		t.Fatalf("accept: %v", err)
	}
}

func TestFriendshipAcceptReportsMaybeWhenContactUnverified(t *testing.T) {
	t.Parallel()

	session, backend := newTestBot(t)
	backend.AddFriendship(puppet.FriendshipPayload{
		ID:        "friendship-1",
		ContactID: "contact-ghost",
		Type:      puppet.FriendshipTypeReceive,
	})

	friendship, err := session.Context().FriendshipLoad(context.Background(), "friendship-1")
	if err != nil {
		t.Fatalf("friendship load: %v", err)
	}
	if err := friendship.Accept(context.Background()); !errors.Is(err, puppet.ErrMaybe) {
		t.Fatalf("err = %v, want ErrMaybe", err)
	}
}

func TestContactSyncRefreshesPayload(t *testing.T) {
	t.Parallel()

	session, backend := newTestBot(t)
	backend.AddContact(puppet.ContactPayload{ID: "contact-1", Name: "Alice"})

	contact, err := session.Context().ContactLoad(context.Background(), "contact-1")
	if err != nil {
		t.Fatalf("contact load: %v", err)
	}
	backend.AddContact(puppet.ContactPayload{ID: "contact-1", Name: "Alicia"})
	if contact.Name() != "Alice" {
		t.Fatalf("name = %q, want cached Alice", contact.Name())
	}

	if err := contact.Sync(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if contact.Name() != "Alicia" {
		t.Fatalf("name = %q, want Alicia", contact.Name())
	}
}

func TestMessageForwardUnsupportedType(t *testing.T) {
	t.Parallel()

	session, backend := newTestBot(t)
	backend.AddMessage(puppet.MessagePayload{
		ID:   "msg-1",
		Type: puppet.MessageTypeImage,
	})

	message, err := session.Context().MessageLoad(context.Background(), "msg-1")
	if err != nil {
		t.Fatalf("message load: %v", err)
	}
	if _, err := message.Forward(context.Background(), "contact-2"); !errors.Is(err, puppet.ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
}

func TestDingDongEndToEnd(t *testing.T) {
	t.Parallel()

	backend := mock.NewBackend()
	backend.AddContact(puppet.ContactPayload{ID: "contact-self", Name: "Self"})
	backend.AddContact(puppet.ContactPayload{ID: "contact-alice", Name: "Alice"})
	backend.AddMessage(puppet.MessagePayload{
		ID:     "msg-ding",
		Text:   "ding",
		Type:   puppet.MessageTypeText,
		FromID: "contact-alice",
		ToID:   "contact-self",
	})

	session, err := bot.New(backend, bot.WithName("ding-dong"))
	if err != nil {
		t.Fatalf("new bot: %v", err)
	}

	replied := make(chan *bot.Message, 1)
	session.OnMessage(func(ctx context.Context, payload bot.MessagePayload, _ bot.Context) error {
		if payload.Message.Text() != "ding" {
			return nil
		}
		reply, err := payload.Message.Reply(ctx, "dong")
		if err != nil {
			return err
		}
		replied <- reply

		return nil
	})

	backend.EmitLogin("contact-self")
	backend.EmitMessage("msg-ding")

	done := make(chan error, 1)
	go func() {
		done <- session.Start(context.Background())
	}()

	select {
	case reply := <-replied:
		if reply == nil || reply.Text() != "dong" {
			t.Errorf("reply = %+v, want text dong", reply)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reply")
	}

	backend.CloseEvents()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("start: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for bot to stop")
	}
}
