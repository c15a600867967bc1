// Package session owns the authenticated identity, its token and its persistence.
package session

import (
	"sync"
	"time"

	"github.com/approvalflow/workflow-client/internal/session/model"
)

// Holder caches the authenticated identity and bearer token.
// It is safe for concurrent use.
type Holder struct {
	mu        sync.RWMutex
	identity  *model.Identity
	token     string
	expiresAt time.Time
}

// NewHolder creates an empty, unauthenticated holder
func NewHolder() *Holder {
	return &Holder{}
}

// SetIdentity replaces the cached identity. Roles are normalized on the way in.
func (h *Holder) SetIdentity(identity model.Identity) {
	identity.Roles = model.NewRoleSet(identity.Roles.Strings()...)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.identity = &identity
}

// SetSession replaces identity, token and token expiry in one step
func (h *Holder) SetSession(token string, identity model.Identity, expiresAt time.Time) {
	identity.Roles = model.NewRoleSet(identity.Roles.Strings()...)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.identity = &identity
	h.token = token
	h.expiresAt = expiresAt
}

// Clear forgets identity and token
func (h *Holder) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.identity = nil
	h.token = ""
	h.expiresAt = time.Time{}
}

// CurrentIdentity returns the cached identity and whether one is present
func (h *Holder) CurrentIdentity() (model.Identity, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.identity == nil {
		return model.Identity{}, false
	}
	identity := *h.identity
	identity.Roles = append(model.RoleSet(nil), h.identity.Roles...)
	return identity, true
}

// Capabilities derives the action flags of the cached identity.
// Without an identity every flag is false.
func (h *Holder) Capabilities() model.Capabilities {
	identity, ok := h.CurrentIdentity()
	if !ok {
		return model.Capabilities{}
	}
	return model.CapabilitiesOf(identity)
}

// Token returns the bearer token, or an empty string when unauthenticated
func (h *Holder) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// ExpiresAt returns the token expiry. The zero time means the token carries no expiry.
func (h *Holder) ExpiresAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.expiresAt
}

// Expired reports whether the held token has passed its expiry at now
func (h *Holder) Expired(now time.Time) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return !h.expiresAt.IsZero() && !now.Before(h.expiresAt)
}
