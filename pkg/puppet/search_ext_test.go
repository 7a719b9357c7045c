package puppet_test

import (
	"context"
	"reflect"
	"regexp"
	"testing"

	"puppetry/pkg/mock"
	"puppetry/pkg/puppet"
)

func stringPtr(value string) *string {
	return &value
}

func seedContacts(backend *mock.Backend) {
	backend.AddContact(puppet.ContactPayload{ID: "contact-1", Name: "Alice", Alias: "ally"})
	backend.AddContact(puppet.ContactPayload{ID: "contact-2", Name: "Alice", Alias: "other"})
	backend.AddContact(puppet.ContactPayload{ID: "contact-3", Name: "Bob", Alias: "ally"})
}

func TestContactSearchConstraintsAreANDed(t *testing.T) {
	t.Parallel()

	cached, backend := newTestPuppet(t)
	seedContacts(backend)

	matched, err := cached.ContactSearch(context.Background(), puppet.ContactQueryFilter{
		Name:  stringPtr("Alice"),
		Alias: stringPtr("ally"),
	}, nil)
	if err != nil {
		t.Fatalf("contact search: %v", err)
	}
	if !reflect.DeepEqual(matched, []string{"contact-1"}) {
		t.Fatalf("matched = %v, want [contact-1]", matched)
	}
}

func TestContactSearchRegexConstraint(t *testing.T) {
	t.Parallel()

	cached, backend := newTestPuppet(t)
	seedContacts(backend)

	matched, err := cached.ContactSearch(context.Background(), puppet.ContactQueryFilter{
		NameRegex: regexp.MustCompile(`^Ali`),
	}, nil)
	if err != nil {
		t.Fatalf("contact search: %v", err)
	}
	if !reflect.DeepEqual(matched, []string{"contact-1", "contact-2"}) {
		t.Fatalf("matched = %v, want [contact-1 contact-2]", matched)
	}
}

func TestContactSearchEmptyFilterMatchesAll(t *testing.T) {
	t.Parallel()

	cached, backend := newTestPuppet(t)
	seedContacts(backend)

	matched, err := cached.ContactSearch(context.Background(), puppet.ContactQueryFilter{}, nil)
	if err != nil {
		t.Fatalf("contact search: %v", err)
	}
	if len(matched) != 3 {
		t.Fatalf("matched = %v, want all three", matched)
	}
}

func TestContactSearchByStringUnionsIDAndAliasMatches(t *testing.T) {
	t.Parallel()

	cached, backend := newTestPuppet(t)
	seedContacts(backend)
	// A contact whose id doubles as another contact's alias exercises
	// deduplication.
	backend.AddContact(puppet.ContactPayload{ID: "ally", Name: "Eve", Alias: "ally"})

	matched, err := cached.ContactSearchByString(context.Background(), "ally", nil)
	if err != nil {
		t.Fatalf("contact search by string: %v", err)
	}
	if !reflect.DeepEqual(matched, []string{"ally", "contact-1", "contact-3"}) {
		t.Fatalf("matched = %v, want [ally contact-1 contact-3]", matched)
	}
}

func TestMessageSearchConsultsCacheOnly(t *testing.T) {
	t.Parallel()

	cached, backend := newTestPuppet(t)
	backend.AddMessage(puppet.MessagePayload{ID: "msg-1", Text: "ding", Type: puppet.MessageTypeText})
	backend.AddMessage(puppet.MessagePayload{ID: "msg-2", Text: "ding", Type: puppet.MessageTypeText})

	// Only msg-1 enters the cache.
	if _, err := cached.MessagePayload(context.Background(), "msg-1"); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	matched, err := cached.MessageSearch(context.Background(), puppet.MessageQueryFilter{
		Text: stringPtr("ding"),
	})
	if err != nil {
		t.Fatalf("message search: %v", err)
	}
	if !reflect.DeepEqual(matched, []string{"msg-1"}) {
		t.Fatalf("matched = %v, want [msg-1]", matched)
	}
}

func TestRoomSearchTopicRegex(t *testing.T) {
	t.Parallel()

	cached, backend := newTestPuppet(t)
	backend.AddRoom(puppet.RoomPayload{ID: "room-1", Topic: "tea time"})
	backend.AddRoom(puppet.RoomPayload{ID: "room-2", Topic: "coffee"})

	matched, err := cached.RoomSearch(context.Background(), puppet.RoomQueryFilter{
		TopicRegex: regexp.MustCompile(`tea`),
	}, nil)
	if err != nil {
		t.Fatalf("room search: %v", err)
	}
	if !reflect.DeepEqual(matched, []string{"room-1"}) {
		t.Fatalf("matched = %v, want [room-1]", matched)
	}
}

func TestRoomMemberSearchByStringUnionsNameAndAlias(t *testing.T) {
	t.Parallel()

	cached, backend := newTestPuppet(t)
	backend.AddRoom(puppet.RoomPayload{ID: "room-1", Topic: "tea", MemberIDList: []string{"a", "b", "c"}})
	backend.AddRoomMember("room-1", puppet.RoomMemberPayload{ID: "a", Name: "Lin", RoomAlias: "boss"})
	backend.AddRoomMember("room-1", puppet.RoomMemberPayload{ID: "b", Name: "boss", RoomAlias: ""})
	backend.AddRoomMember("room-1", puppet.RoomMemberPayload{ID: "c", Name: "Sam", RoomAlias: "sam"})

	matched, err := cached.RoomMemberSearchByString(context.Background(), "room-1", "boss")
	if err != nil {
		t.Fatalf("room member search by string: %v", err)
	}
	if !reflect.DeepEqual(matched, []string{"b", "a"}) {
		t.Fatalf("matched = %v, want [b a]", matched)
	}
}

func TestFriendshipSearchPrefersPhone(t *testing.T) {
	t.Parallel()

	cached, backend := newTestPuppet(t)
	backend.AddContact(puppet.ContactPayload{ID: "contact-1", Phone: []string{"+100"}})
	backend.AddContact(puppet.ContactPayload{ID: "contact-2", Handle: "handle-x"})

	contactID, err := cached.FriendshipSearch(context.Background(), puppet.FriendshipSearchQueryFilter{
		Phone:  stringPtr("+100"),
		Handle: stringPtr("handle-x"),
	})
	if err != nil {
		t.Fatalf("friendship search: %v", err)
	}
	if contactID != "contact-1" {
		t.Fatalf("contact id = %q, want contact-1", contactID)
	}
}

func TestFriendshipSearchWithoutConstraintsFindsNothing(t *testing.T) {
	t.Parallel()

	cached, _ := newTestPuppet(t)

	contactID, err := cached.FriendshipSearch(context.Background(), puppet.FriendshipSearchQueryFilter{})
	if err != nil {
		t.Fatalf("friendship search: %v", err)
	}
	if contactID != "" {
		t.Fatalf("contact id = %q, want empty", contactID)
	}
}
