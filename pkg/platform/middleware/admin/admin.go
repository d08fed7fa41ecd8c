// Package admin guards operator endpoints with a shared token whose bcrypt
// hash is configured at startup.
package admin

import (
	"errors"
	"log/slog"
	"net/http"

	dErrors "carehub/pkg/domain-errors"
	"carehub/pkg/platform/httputil"
	"carehub/pkg/requestcontext"

	"golang.org/x/crypto/bcrypt"
)

// HeaderAdminToken carries the plaintext operator token.
const HeaderAdminToken = "X-Admin-Token"

var errAdminToken = dErrors.New(dErrors.CodeUnauthorized, "admin token required")

// RequireAdminToken compares the request's token against tokenHash. An empty
// hash disables the guarded routes entirely.
func RequireAdminToken(tokenHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if tokenHash == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "admin endpoints are disabled"))
				return
			}
			token := r.Header.Get(HeaderAdminToken)
			if token == "" {
				httputil.WriteError(w, errAdminToken)
				return
			}
			if err := bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(token)); err != nil {
				if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
					logger.ErrorContext(ctx, "admin token hash unusable",
						"error", err,
						"request_id", requestcontext.RequestID(ctx),
					)
				}
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestcontext.RequestID(ctx),
					"client_ip", requestcontext.ClientIP(ctx),
				)
				httputil.WriteError(w, errAdminToken)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// HashToken produces the value operators put in the admin hash setting.
func HashToken(token string) (string, error) {
	if token == "" {
		return "", dErrors.New(dErrors.CodeValidation, "admin token cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
