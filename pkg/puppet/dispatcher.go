package puppet

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// EventConsumer receives typed events published by a Dispatcher. A
// consumer error is logged and does not affect delivery to the other
// consumers of the same kind.
type EventConsumer interface {
	HandleEvent(ctx context.Context, event *Event) error
}

// Dispatcher decodes the raw backend frame stream and fans typed events
// out to name-keyed consumers per kind. Login, logout and dirty events
// mutate the shared identity and caches before any consumer observes
// them.
type Dispatcher struct {
	puppet   *Puppet
	identity *Identity
	logger   *slog.Logger

	mu        sync.RWMutex
	consumers map[EventKind]map[string]EventConsumer
}

// NewDispatcher creates a dispatcher bound to puppet and identity.
func NewDispatcher(puppet *Puppet, identity *Identity, options ...Option) *Dispatcher {
	cfg := &config{logger: slog.Default()}
	for _, option := range options {
		option(cfg)
	}

	return &Dispatcher{
		puppet:    puppet,
		identity:  identity,
		logger:    cfg.logger,
		consumers: make(map[EventKind]map[string]EventConsumer),
	}
}

// Subscribe registers consumer under name for kind. Re-subscribing the
// same name replaces the previous consumer.
func (d *Dispatcher) Subscribe(kind EventKind, name string, consumer EventConsumer) {
	if consumer == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	byName, found := d.consumers[kind]
	if !found {
		byName = make(map[string]EventConsumer)
		d.consumers[kind] = byName
	}
	byName[name] = consumer
}

// Unsubscribe removes the consumer registered under name for kind.
// Removing an unknown name is a no-op.
func (d *Dispatcher) Unsubscribe(kind EventKind, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.consumers[kind], name)
}

// Run consumes frames until the channel closes or ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context, frames <-chan RawEvent) error {
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("dispatcher run: %w", ctx.Err())
		case frame, open := <-frames:
			if !open {
				return nil
			}
			d.Dispatch(ctx, frame)
		}
	}
}

// Dispatch decodes and delivers one frame. Malformed and unknown frames
// are dropped with a logged error and never reach consumers.
func (d *Dispatcher) Dispatch(ctx context.Context, frame RawEvent) {
	event, err := DecodeRawEvent(frame)
	if err != nil {
		d.logger.Error("dropping raw frame",
			"discriminant", frame.Type,
			"error", err)
		return
	}
	if event == nil {
		return
	}

	d.applySideEffects(ctx, event)
	d.publish(ctx, event)
}

// applySideEffects updates identity and caches so consumers observe the
// post-event state.
func (d *Dispatcher) applySideEffects(ctx context.Context, event *Event) {
	switch event.Kind {
	case EventKindLogin:
		d.identity.Set(event.Login.ContactID)
	case EventKindLogout:
		d.identity.Clear()
	case EventKindDirty:
		if err := d.puppet.DirtyPayload(ctx, event.Dirty.PayloadType, event.Dirty.PayloadID); err != nil {
			d.logger.Warn("dirty invalidation failed",
				"payload_type", event.Dirty.PayloadType,
				"payload_id", event.Dirty.PayloadID,
				"error", err)
		}
	}
}

// publish delivers event to every consumer registered for its kind.
func (d *Dispatcher) publish(ctx context.Context, event *Event) {
	d.mu.RLock()
	delivery := make(map[string]EventConsumer, len(d.consumers[event.Kind]))
	for name, consumer := range d.consumers[event.Kind] {
		delivery[name] = consumer
	}
	d.mu.RUnlock()

	for name, consumer := range delivery {
		if err := consumer.HandleEvent(ctx, event); err != nil {
			d.logger.Error("event consumer failed",
				"consumer", name,
				"kind", event.Kind,
				"error", err)
		}
	}
}
