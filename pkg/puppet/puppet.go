package puppet

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// batchConcurrency bounds parallel backend fetches during batch loads.
const batchConcurrency = 16

// Puppet mediates all entity reads through bounded LRU caches in front
// of a Backend. Mutating operations pass through to the backend; reads
// populate the caches on miss.
type Puppet struct {
	backend Backend
	logger  *slog.Logger

	contacts        *payloadCache[ContactPayload]
	friendships     *payloadCache[FriendshipPayload]
	messages        *payloadCache[MessagePayload]
	rooms           *payloadCache[RoomPayload]
	roomMembers     *payloadCache[RoomMemberPayload]
	roomInvitations *payloadCache[RoomInvitationPayload]
}

// Option customizes puppet construction.
type Option func(*config)

type config struct {
	logger *slog.Logger
}

// WithLogger overrides the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewPuppet creates a cached puppet over backend.
func NewPuppet(backend Backend, options ...Option) (*Puppet, error) {
	if backend == nil {
		return nil, fmt.Errorf("new puppet: nil backend")
	}

	cfg := &config{logger: slog.Default()}
	for _, option := range options {
		option(cfg)
	}

	contacts, err := newPayloadCache[ContactPayload](contactCacheCap)
	if err != nil {
		return nil, fmt.Errorf("new puppet: %w", err)
	}
	friendships, err := newPayloadCache[FriendshipPayload](friendshipCacheCap)
	if err != nil {
		return nil, fmt.Errorf("new puppet: %w", err)
	}
	messages, err := newPayloadCache[MessagePayload](messageCacheCap)
	if err != nil {
		return nil, fmt.Errorf("new puppet: %w", err)
	}
	rooms, err := newPayloadCache[RoomPayload](roomCacheCap)
	if err != nil {
		return nil, fmt.Errorf("new puppet: %w", err)
	}
	roomMembers, err := newPayloadCache[RoomMemberPayload](roomMemberCacheCap)
	if err != nil {
		return nil, fmt.Errorf("new puppet: %w", err)
	}
	roomInvitations, err := newPayloadCache[RoomInvitationPayload](roomInvitationCacheCap)
	if err != nil {
		return nil, fmt.Errorf("new puppet: %w", err)
	}

	return &Puppet{
		backend:         backend,
		logger:          cfg.logger,
		contacts:        contacts,
		friendships:     friendships,
		messages:        messages,
		rooms:           rooms,
		roomMembers:     roomMembers,
		roomInvitations: roomInvitations,
	}, nil
}

// Backend exposes the underlying adapter for pass-through operations.
func (p *Puppet) Backend() Backend {
	return p.backend
}

// Logger returns the puppet's structured logger.
func (p *Puppet) Logger() *slog.Logger {
	return p.logger
}

// ContactPayload returns the profile for contactID, cached.
func (p *Puppet) ContactPayload(ctx context.Context, contactID string) (ContactPayload, error) {
	return p.contacts.GetOrFetch(ctx, contactID, p.backend.ContactPayload)
}

// ContactPayloadBatch loads many contact profiles with bounded concurrency.
// Failed loads are logged and dropped; the returned order follows the
// surviving input order.
func (p *Puppet) ContactPayloadBatch(ctx context.Context, contactIDList []string) []ContactPayload {
	return batchLoad(ctx, p.logger, "contact", contactIDList, p.ContactPayload)
}

// FriendshipPayload returns the friendship record for friendshipID, cached.
func (p *Puppet) FriendshipPayload(ctx context.Context, friendshipID string) (FriendshipPayload, error) {
	return p.friendships.GetOrFetch(ctx, friendshipID, p.backend.FriendshipPayload)
}

// FriendshipPayloadSet stores an authoritative friendship record.
func (p *Puppet) FriendshipPayloadSet(friendshipID string, payload FriendshipPayload) {
	p.friendships.Put(friendshipID, payload)
}

// MessagePayload returns the message record for messageID, cached.
func (p *Puppet) MessagePayload(ctx context.Context, messageID string) (MessagePayload, error) {
	return p.messages.GetOrFetch(ctx, messageID, p.backend.MessagePayload)
}

// MessageList returns the ids of all currently cached messages.
func (p *Puppet) MessageList() []string {
	return p.messages.IDs()
}

// RoomPayload returns the room record for roomID, cached.
func (p *Puppet) RoomPayload(ctx context.Context, roomID string) (RoomPayload, error) {
	return p.rooms.GetOrFetch(ctx, roomID, p.backend.RoomPayload)
}

// RoomPayloadBatch loads many room records with bounded concurrency.
// Failed loads are logged and dropped.
func (p *Puppet) RoomPayloadBatch(ctx context.Context, roomIDList []string) []RoomPayload {
	return batchLoad(ctx, p.logger, "room", roomIDList, p.RoomPayload)
}

// RoomMemberPayload returns the member record for contactID within roomID,
// cached under the composite member key.
func (p *Puppet) RoomMemberPayload(ctx context.Context, roomID string, contactID string) (RoomMemberPayload, error) {
	key := roomMemberCacheKey(contactID, roomID)

	return p.roomMembers.GetOrFetch(ctx, key, func(ctx context.Context, _ string) (RoomMemberPayload, error) {
		return p.backend.RoomMemberPayload(ctx, roomID, contactID)
	})
}

// RoomInvitationPayload returns the invitation record, cached.
func (p *Puppet) RoomInvitationPayload(ctx context.Context, roomInvitationID string) (RoomInvitationPayload, error) {
	return p.roomInvitations.GetOrFetch(ctx, roomInvitationID, p.backend.RoomInvitationPayload)
}

// RoomInvitationPayloadSet stores an authoritative invitation record.
func (p *Puppet) RoomInvitationPayloadSet(roomInvitationID string, payload RoomInvitationPayload) {
	p.roomInvitations.Put(roomInvitationID, payload)
}

// batchLoad fetches payloads for ids with bounded concurrency, preserving
// input order and dropping entries whose load failed.
func batchLoad[P any](
	ctx context.Context,
	logger *slog.Logger,
	entity string,
	ids []string,
	load func(ctx context.Context, id string) (P, error),
) []P {
	loaded := make([]*P, len(ids))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(batchConcurrency)
	for idx, id := range ids {
		idx, id := idx, id
		group.Go(func() error {
			payload, err := load(groupCtx, id)
			if err != nil {
				logger.Warn("batch load failed",
					"entity", entity,
					"id", id,
					"error", err)
				return nil
			}
			loaded[idx] = &payload

			return nil
		})
	}
	// Workers never return errors; Wait only synchronizes completion.
	_ = group.Wait()

	payloads := make([]P, 0, len(ids))
	for _, payload := range loaded {
		if payload != nil {
			payloads = append(payloads, *payload)
		}
	}

	return payloads
}
