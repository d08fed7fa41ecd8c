// Package claims models the authenticated caller as supplied by the identity
// provider and resolves it for the action dispatcher.
package claims

import (
	"slices"

	id "carehub/pkg/domain"
)

// Claims are the authorization attributes attached to an identity.
type Claims struct {
	// FacilityID is empty for callers working in a personal workspace.
	FacilityID id.FacilityID
	// UserPermissions keeps the order the provider issued; it is neither
	// sorted nor deduplicated.
	UserPermissions []string
}

// Identity is the resolved caller: `{uid, claims:{facilityId, userPermissions}}`.
type Identity struct {
	UID    id.UserID
	Claims Claims
}

// Has reports whether the identity was granted permission.
func (i *Identity) Has(permission id.Permission) bool {
	if i == nil {
		return false
	}
	return Granted(i.Claims.UserPermissions, permission)
}

// Granted reports whether permission appears in perms. Matching is exact and
// case-sensitive.
func Granted(perms []string, permission id.Permission) bool {
	return slices.Contains(perms, string(permission))
}
