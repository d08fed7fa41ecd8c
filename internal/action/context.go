package action

import (
	"carehub/internal/claims"
	id "carehub/pkg/domain"
	audit "carehub/pkg/platform/audit"
)

// Context is the per-invocation bundle handed to a handler. It is built
// fresh for every call and never persisted.
type Context struct {
	UserID     id.UserID
	FacilityID id.FacilityID
	// UserPermissions is the caller's grant set as received.
	UserPermissions []string
	// Audit is bound to UserID and FacilityID.
	Audit audit.Recorder
	// IPAddress is only set on server-side invocation paths.
	IPAddress string
}

// NewContext builds a Context for identity.
func NewContext(identity *claims.Identity, recorder audit.Recorder) *Context {
	return &Context{
		UserID:          identity.UID,
		FacilityID:      identity.Claims.FacilityID,
		UserPermissions: identity.Claims.UserPermissions,
		Audit:           recorder,
	}
}

// WithIPAddress returns a copy of c carrying the caller's address.
func (c *Context) WithIPAddress(ip string) *Context {
	cp := *c
	cp.IPAddress = ip
	return &cp
}
