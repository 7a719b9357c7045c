package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"puppetry/pkg/puppet"
)

// listenedKinds enumerates every event kind the listener consumes.
var listenedKinds = []puppet.EventKind{
	puppet.EventKindDong,
	puppet.EventKindError,
	puppet.EventKindFriendship,
	puppet.EventKindHeartbeat,
	puppet.EventKindLogin,
	puppet.EventKindLogout,
	puppet.EventKindMessage,
	puppet.EventKindReady,
	puppet.EventKindReset,
	puppet.EventKindRoomInvite,
	puppet.EventKindRoomJoin,
	puppet.EventKindRoomLeave,
	puppet.EventKindRoomTopic,
	puppet.EventKindScan,
}

// Bot is one chat automation session: a backend, the cached puppet layer
// over it, the event dispatcher and a listener for handler registration.
// Handlers are registered through the embedded Listener before Start.
type Bot struct {
	*Listener

	backend    puppet.Backend
	puppet     *puppet.Puppet
	identity   *puppet.Identity
	dispatcher *puppet.Dispatcher
	logger     *slog.Logger
}

// Option customizes bot construction.
type Option func(*config)

type config struct {
	name   string
	logger *slog.Logger
}

// WithName sets the subscriber name of the bot listener.
func WithName(name string) Option {
	return func(c *config) {
		if name != "" {
			c.name = name
		}
	}
}

// WithLogger overrides the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New assembles a bot over backend.
func New(backend puppet.Backend, options ...Option) (*Bot, error) {
	cfg := &config{name: "bot", logger: slog.Default()}
	for _, option := range options {
		option(cfg)
	}

	cachedPuppet, err := puppet.NewPuppet(backend, puppet.WithLogger(cfg.logger))
	if err != nil {
		return nil, fmt.Errorf("new bot: %w", err)
	}

	identity := puppet.NewIdentity()
	session := NewContext(cachedPuppet, identity, cfg.logger)
	listener := NewListener(cfg.name, session)
	dispatcher := puppet.NewDispatcher(cachedPuppet, identity, puppet.WithLogger(cfg.logger))
	for _, kind := range listenedKinds {
		dispatcher.Subscribe(kind, cfg.name, listener)
	}

	return &Bot{
		Listener:   listener,
		backend:    backend,
		puppet:     cachedPuppet,
		identity:   identity,
		dispatcher: dispatcher,
		logger:     cfg.logger,
	}, nil
}

// Context returns the session handle shared with handlers.
func (b *Bot) Context() Context {
	return b.session
}

// Puppet exposes the cached puppet layer.
func (b *Bot) Puppet() *puppet.Puppet {
	return b.puppet
}

// Dispatcher exposes the event dispatcher for additional consumers.
func (b *Bot) Dispatcher() *puppet.Dispatcher {
	return b.dispatcher
}

// Start connects the backend and processes its event stream until the
// stream closes or ctx is cancelled. The backend is stopped before
// Start returns.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.backend.Start(ctx); err != nil {
		return fmt.Errorf("start bot: %w", err)
	}

	frames, err := b.backend.Events(ctx)
	if err != nil {
		stopErr := b.backend.Stop(context.WithoutCancel(ctx))

		return errors.Join(fmt.Errorf("start bot: %w", err), stopErr)
	}

	b.logger.Info("bot started", "name", b.name)

	runErr := b.dispatcher.Run(ctx, frames)
	if runErr != nil && errors.Is(runErr, context.Canceled) {
		runErr = nil
	}

	if err := b.backend.Stop(context.WithoutCancel(ctx)); err != nil {
		return errors.Join(runErr, fmt.Errorf("stop bot: %w", err))
	}

	b.logger.Info("bot stopped", "name", b.name)

	return runErr
}
