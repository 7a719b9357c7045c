package puppet

import "sync"

// Identity tracks the logged-in contact id for one session. It is shared
// between the dispatcher, which mutates it on login/logout events, and
// every cloned session handle, which reads it to gate operations.
type Identity struct {
	mu sync.RWMutex
	id string
}

// NewIdentity creates a logged-out identity cell.
func NewIdentity() *Identity {
	return &Identity{}
}

// Set records the contact id of the authenticated account.
func (i *Identity) Set(contactID string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.id = contactID
}

// Clear forgets the authenticated account.
func (i *Identity) Clear() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.id = ""
}

// ID returns the logged-in contact id and whether a session is active.
func (i *Identity) ID() (string, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	return i.id, i.id != ""
}

// LoggedIn reports whether a contact id is currently set.
func (i *Identity) LoggedIn() bool {
	_, ok := i.ID()

	return ok
}
