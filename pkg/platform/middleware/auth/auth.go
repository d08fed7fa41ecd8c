// Package auth authenticates bearer tokens and places the caller's identity
// in the request context.
package auth

import (
	"log/slog"
	"net/http"
	"strings"

	id "carehub/pkg/domain"
	dErrors "carehub/pkg/domain-errors"
	"carehub/pkg/platform/httputil"
	"carehub/pkg/requestcontext"
)

// Principal is what a validated token asserts about its bearer.
type Principal struct {
	UserID      id.UserID
	FacilityID  id.FacilityID
	Permissions []string
}

// TokenValidator validates a raw bearer token.
type TokenValidator interface {
	ValidateToken(token string) (*Principal, error)
}

const bearerPrefix = "Bearer "

var errInvalidToken = dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token")

// RequireAuth rejects requests without a valid bearer token with 401.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok || strings.TrimSpace(token) == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Missing bearer token"))
				return
			}

			principal, err := validator.ValidateToken(strings.TrimSpace(token))
			if err != nil || principal == nil || principal.UserID.IsNil() {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, errInvalidToken)
				return
			}

			ctx = requestcontext.WithUserID(ctx, principal.UserID)
			ctx = requestcontext.WithFacilityID(ctx, principal.FacilityID)
			ctx = requestcontext.WithPermissions(ctx, principal.Permissions)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
