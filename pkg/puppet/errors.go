package puppet

import (
	"errors"
	"fmt"
)

var (
	// ErrNotLoggedIn indicates an operation that requires a logged-in identity.
	ErrNotLoggedIn = errors.New("puppet: not logged in")
	// ErrInvalidOperation indicates caller misuse of an otherwise valid API.
	ErrInvalidOperation = errors.New("puppet: invalid operation")
	// ErrNoPayload indicates an entity whose payload never successfully loaded.
	ErrNoPayload = errors.New("puppet: entity has no payload")
	// ErrInvalidEvent indicates a raw frame that fails per-kind field validation.
	ErrInvalidEvent = errors.New("puppet: invalid event")
	// ErrUnknownEventKind indicates a raw frame with an unknown discriminant.
	ErrUnknownEventKind = errors.New("puppet: unknown event kind")
	// ErrUnknownPayloadType indicates a dirty signal for an unknown payload type.
	ErrUnknownPayloadType = errors.New("puppet: unknown payload type")
	// ErrUnsupported indicates an operation the backend cannot perform.
	ErrUnsupported = errors.New("puppet: unsupported operation")
	// ErrMaybe indicates an operation that may or may not have succeeded
	// because a follow-up verification step itself failed.
	ErrMaybe = errors.New("puppet: operation outcome unknown")
)

// BackendError wraps a failure reported by the puppet backend with a
// human-readable reason.
type BackendError struct {
	Reason string
	Err    error
}

// NewBackendError creates a backend failure carrying reason and optional cause.
func NewBackendError(reason string, err error) *BackendError {
	return &BackendError{
		Reason: reason,
		Err:    err,
	}
}

// Error renders the failure reason and cause when present.
func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("puppet: backend failure: %s: %v", e.Reason, e.Err)
	}

	return fmt.Sprintf("puppet: backend failure: %s", e.Reason)
}

// Unwrap exposes the underlying cause for errors.Is/errors.As chains.
func (e *BackendError) Unwrap() error {
	return e.Err
}
