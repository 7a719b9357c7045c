package puppet_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"go.uber.org/goleak"

	"puppetry/pkg/mock"
	"puppetry/pkg/puppet"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestPuppet(t *testing.T) (*puppet.Puppet, *mock.Backend) {
	t.Helper()

	backend := mock.NewBackend()
	cached, err := puppet.NewPuppet(backend, puppet.WithLogger(slog.Default()))
	if err != nil {
		t.Fatalf("new puppet: %v", err)
	}

	return cached, backend
}

func TestContactPayloadFetchedOnce(t *testing.T) {
	t.Parallel()

	cached, backend := newTestPuppet(t)
	backend.AddContact(puppet.ContactPayload{ID: "contact-1", Name: "Alice"})

	for round := 0; round < 3; round++ {
		payload, err := cached.ContactPayload(context.Background(), "contact-1")
		if err != nil {
			t.Fatalf("contact payload: %v", err)
		}
		if payload.Name != "Alice" {
			t.Fatalf("name = %q, want Alice", payload.Name)
		}
	}

	if fetches := backend.Fetches("contact", "contact-1"); fetches != 1 {
		t.Fatalf("fetches = %d, want 1", fetches)
	}
}

func TestContactPayloadMissingReturnsBackendError(t *testing.T) {
	t.Parallel()

	cached, _ := newTestPuppet(t)

	_, err := cached.ContactPayload(context.Background(), "contact-missing")
	var backendErr *puppet.BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("err = %v, want BackendError", err)
	}
}

func TestDirtyPayloadForcesRefetch(t *testing.T) {
	t.Parallel()

	cached, backend := newTestPuppet(t)
	backend.AddContact(puppet.ContactPayload{ID: "contact-1", Name: "Alice"})

	if _, err := cached.ContactPayload(context.Background(), "contact-1"); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	backend.AddContact(puppet.ContactPayload{ID: "contact-1", Name: "Alicia"})
	if err := cached.DirtyPayload(context.Background(), puppet.PayloadTypeContact, "contact-1"); err != nil {
		t.Fatalf("dirty payload: %v", err)
	}

	payload, err := cached.ContactPayload(context.Background(), "contact-1")
	if err != nil {
		t.Fatalf("contact payload: %v", err)
	}
	if payload.Name != "Alicia" {
		t.Fatalf("name = %q, want Alicia", payload.Name)
	}
	if fetches := backend.Fetches("contact", "contact-1"); fetches != 2 {
		t.Fatalf("fetches = %d, want 2", fetches)
	}
}

func TestDirtyPayloadUnknownTypeFails(t *testing.T) {
	t.Parallel()

	cached, _ := newTestPuppet(t)

	err := cached.DirtyPayload(context.Background(), puppet.PayloadTypeUnknown, "x")
	if !errors.Is(err, puppet.ErrUnknownPayloadType) {
		t.Fatalf("err = %v, want ErrUnknownPayloadType", err)
	}
}

func TestDirtyPayloadRoomInvalidatesMembers(t *testing.T) {
	t.Parallel()

	cached, backend := newTestPuppet(t)
	backend.AddRoom(puppet.RoomPayload{ID: "room-1", Topic: "tea", MemberIDList: []string{"a", "b"}})
	backend.AddRoomMember("room-1", puppet.RoomMemberPayload{ID: "a", Name: "Alice"})
	backend.AddRoomMember("room-1", puppet.RoomMemberPayload{ID: "b", Name: "Bob"})

	if _, err := cached.RoomMemberPayload(context.Background(), "room-1", "a"); err != nil {
		t.Fatalf("warm member cache: %v", err)
	}
	if err := cached.DirtyPayload(context.Background(), puppet.PayloadTypeRoom, "room-1"); err != nil {
		t.Fatalf("dirty room: %v", err)
	}
	if _, err := cached.RoomMemberPayload(context.Background(), "room-1", "a"); err != nil {
		t.Fatalf("reload member: %v", err)
	}

	if fetches := backend.Fetches("room-member", "a@room-1"); fetches != 2 {
		t.Fatalf("member fetches = %d, want 2", fetches)
	}
}

func TestDirtyPayloadRoomMemberListFailureAbortsInvalidation(t *testing.T) {
	t.Parallel()

	cached, _ := newTestPuppet(t)

	err := cached.DirtyPayload(context.Background(), puppet.PayloadTypeRoomMember, "room-missing")
	var backendErr *puppet.BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("err = %v, want BackendError", err)
	}
}

func TestContactPayloadBatchDropsFailuresAndKeepsOrder(t *testing.T) {
	t.Parallel()

	cached, backend := newTestPuppet(t)
	backend.AddContact(puppet.ContactPayload{ID: "contact-1", Name: "Alice"})
	backend.AddContact(puppet.ContactPayload{ID: "contact-3", Name: "Carol"})

	payloads := cached.ContactPayloadBatch(
		context.Background(),
		[]string{"contact-1", "contact-2", "contact-3"},
	)
	if len(payloads) != 2 {
		t.Fatalf("len = %d, want 2", len(payloads))
	}
	if payloads[0].ID != "contact-1" || payloads[1].ID != "contact-3" {
		t.Fatalf("order = %s,%s want contact-1,contact-3", payloads[0].ID, payloads[1].ID)
	}
}

func TestFriendshipPayloadSetAvoidsFetch(t *testing.T) {
	t.Parallel()

	cached, backend := newTestPuppet(t)
	cached.FriendshipPayloadSet("friendship-1", puppet.FriendshipPayload{
		ID:        "friendship-1",
		ContactID: "contact-1",
		Hello:     "hi",
	})

	payload, err := cached.FriendshipPayload(context.Background(), "friendship-1")
	if err != nil {
		t.Fatalf("friendship payload: %v", err)
	}
	if payload.Hello != "hi" {
		t.Fatalf("hello = %q, want hi", payload.Hello)
	}
	if fetches := backend.Fetches("friendship", "friendship-1"); fetches != 0 {
		t.Fatalf("fetches = %d, want 0", fetches)
	}
}

func TestMessageListReflectsCachedMessagesOnly(t *testing.T) {
	t.Parallel()

	cached, backend := newTestPuppet(t)
	backend.AddMessage(puppet.MessagePayload{ID: "msg-1", Text: "hello", Type: puppet.MessageTypeText})
	backend.AddMessage(puppet.MessagePayload{ID: "msg-2", Text: "world", Type: puppet.MessageTypeText})

	if list := cached.MessageList(); len(list) != 0 {
		t.Fatalf("cached ids before load = %v, want none", list)
	}

	if _, err := cached.MessagePayload(context.Background(), "msg-1"); err != nil {
		t.Fatalf("message payload: %v", err)
	}
	list := cached.MessageList()
	if len(list) != 1 || list[0] != "msg-1" {
		t.Fatalf("cached ids = %v, want [msg-1]", list)
	}
}
