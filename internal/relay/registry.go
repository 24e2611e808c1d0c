package relay

import (
	"sync"
)

// Registry is the ephemeral mapping from kiosk identifier to its currently
// connected handle. Process-local: a restart drops all kiosk presence.
// There is no heartbeat; an entry lives until the owning connection's
// disconnect fires, so a partition that never disconnects leaves a stale
// entry behind.
type Registry struct {
	mu     sync.RWMutex
	kiosks map[string]Handle
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{kiosks: make(map[string]Handle)}
}

// Register records or overwrites the mapping for the kiosk. A no-op when
// the id is empty.
func (r *Registry) Register(kioskID string, handle Handle) {
	if kioskID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.kiosks[kioskID] = handle
}

// Resolve returns the kiosk's live handle, or false when the kiosk is
// offline.
func (r *Registry) Resolve(kioskID string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handle, ok := r.kiosks[kioskID]
	return handle, ok
}

// UnregisterIfOwner removes the mapping only if the stored handle is the
// given one. Every disconnect path must go through this guard: a kiosk that
// reconnected has already overwritten the entry, and the late disconnect of
// its old connection must not evict the new session.
func (r *Registry) UnregisterIfOwner(kioskID string, handle Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.kiosks[kioskID]; ok && current == handle {
		delete(r.kiosks, kioskID)
		return true
	}
	return false
}

// Online reports whether the kiosk has a registered handle.
func (r *Registry) Online(kioskID string) bool {
	_, ok := r.Resolve(kioskID)
	return ok
}
