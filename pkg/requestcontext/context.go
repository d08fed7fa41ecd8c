// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; services and the action dispatcher read them.
// Keeping this package free of net/http lets non-HTTP callers (workers, tests,
// scripts) inject the same values directly:
//
//	ctx = requestcontext.WithUserID(ctx, "user-1")
//	ctx = requestcontext.WithFacilityID(ctx, "facility-9")
//	ctx = requestcontext.WithPermissions(ctx, []string{"SEND_MESSAGES"})
package requestcontext

import (
	"context"
	"time"

	id "carehub/pkg/domain"
)

type (
	userIDKey      struct{}
	facilityIDKey  struct{}
	permissionsKey struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
	deviceKey      struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyUserID      = userIDKey{}
	ContextKeyFacilityID  = facilityIDKey{}
	ContextKeyPermissions = permissionsKey{}
	ContextKeyClientIP    = clientIPKey{}
	ContextKeyUserAgent   = userAgentKey{}
	ContextKeyDevice      = deviceKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// -----------------------------------------------------------------------------
// Identity (user, facility, permissions)
// -----------------------------------------------------------------------------

// UserID retrieves the authenticated user ID from the context.
// Returns the empty id if not set.
func UserID(ctx context.Context) id.UserID {
	if userID, ok := ctx.Value(ContextKeyUserID).(id.UserID); ok {
		return userID
	}
	return ""
}

// WithUserID injects a user ID into the context.
func WithUserID(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

// FacilityID retrieves the caller's facility scope. Empty for callers not
// bound to a facility.
func FacilityID(ctx context.Context) id.FacilityID {
	if facilityID, ok := ctx.Value(ContextKeyFacilityID).(id.FacilityID); ok {
		return facilityID
	}
	return ""
}

// WithFacilityID injects a facility scope into the context.
func WithFacilityID(ctx context.Context, facilityID id.FacilityID) context.Context {
	return context.WithValue(ctx, ContextKeyFacilityID, facilityID)
}

// Permissions returns the permission strings granted to the caller, in the
// order the claims provider issued them.
func Permissions(ctx context.Context) []string {
	if perms, ok := ctx.Value(ContextKeyPermissions).([]string); ok {
		return perms
	}
	return nil
}

// WithPermissions injects the caller's permission set into the context.
func WithPermissions(ctx context.Context, perms []string) context.Context {
	return context.WithValue(ctx, ContextKeyPermissions, perms)
}

// -----------------------------------------------------------------------------
// Client metadata (IP, User-Agent, device)
// -----------------------------------------------------------------------------

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the User-Agent from the context.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(ContextKeyUserAgent).(string); ok {
		return ua
	}
	return ""
}

// Device retrieves the parsed device label ("Chrome on Windows 10").
func Device(ctx context.Context) string {
	if d, ok := ctx.Value(ContextKeyDevice).(string); ok {
		return d
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent into a context.
// Useful for service unit tests that don't run the full HTTP middleware chain.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyClientIP, clientIP)
	ctx = context.WithValue(ctx, ContextKeyUserAgent, userAgent)
	return ctx
}

// WithDevice injects a device label into the context.
func WithDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, ContextKeyDevice, device)
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
