package domain

import (
	"fmt"
	"strings"
	"unicode"

	dErrors "carehub/pkg/domain-errors"
)

// maxIDLength bounds user and facility ids accepted at trust boundaries.
const maxIDLength = 128

// UserID identifies an authenticated caller as issued by the claims provider.
type UserID string

// FacilityID identifies the tenant a caller is bound to. The zero value means
// the caller works in a personal workspace.
type FacilityID string

// ActionID is the dot-namespaced key of a registered action, e.g. "thread.create".
type ActionID string

// Permission is a single grant string carried in a caller's claims.
type Permission string

func (id UserID) String() string {
	return string(id)
}

func (id UserID) IsNil() bool {
	return strings.TrimSpace(string(id)) == ""
}

func (id FacilityID) String() string {
	return string(id)
}

func (id FacilityID) IsNil() bool {
	return strings.TrimSpace(string(id)) == ""
}

func (id ActionID) String() string {
	return string(id)
}

func (p Permission) String() string {
	return string(p)
}

// ParseUserID validates a user id received from outside the process.
func ParseUserID(s string) (UserID, error) {
	if err := validateOpaqueID("user id", s); err != nil {
		return "", err
	}
	return UserID(s), nil
}

// ParseFacilityID validates a facility id received from outside the process.
func ParseFacilityID(s string) (FacilityID, error) {
	if err := validateOpaqueID("facility id", s); err != nil {
		return "", err
	}
	return FacilityID(s), nil
}

func validateOpaqueID(kind, s string) error {
	if s == "" {
		return dErrors.New(dErrors.CodeValidation, kind+" is required")
	}
	if len(s) > maxIDLength {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds %d characters", kind, maxIDLength))
	}
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return dErrors.New(dErrors.CodeValidation, kind+" contains whitespace or control characters")
		}
	}
	return nil
}

// ParseActionID validates the dotted namespace form of an action id.
// Segments are non-empty and limited to lowercase letters, digits and '_'.
func ParseActionID(s string) (ActionID, error) {
	if s == "" {
		return "", fmt.Errorf("action id is required")
	}
	segments := strings.Split(s, ".")
	if len(segments) < 2 {
		return "", fmt.Errorf("action id %q must be namespaced with '.'", s)
	}
	for _, seg := range segments {
		if seg == "" {
			return "", fmt.Errorf("action id %q has an empty segment", s)
		}
		for _, r := range seg {
			if !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '_' {
				return "", fmt.Errorf("action id %q contains invalid character %q", s, r)
			}
		}
	}
	return ActionID(s), nil
}

// Namespace returns everything before the last segment ("profile.facility"
// for "profile.facility.update_settings").
func (id ActionID) Namespace() string {
	s := string(id)
	if idx := strings.LastIndex(s, "."); idx != -1 {
		return s[:idx]
	}
	return ""
}

// ParsePermission rejects blank permission strings.
func ParsePermission(s string) (Permission, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("permission is required")
	}
	return Permission(s), nil
}
