package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"carehub/pkg/requestcontext"

	"github.com/stretchr/testify/assert"
)

type validatorFunc func(string) (*Principal, error)

func (f validatorFunc) ValidateToken(token string) (*Principal, error) {
	return f(token)
}

func TestRequireAuth(t *testing.T) {
	validator := validatorFunc(func(token string) (*Principal, error) {
		switch token {
		case "good":
			return &Principal{UserID: "user-1", FacilityID: "fac-1", Permissions: []string{"SEND_MESSAGES"}}, nil
		case "anonymous":
			return &Principal{}, nil
		}
		return nil, errors.New("signature invalid")
	})

	var reached bool
	var principal Principal
	h := RequireAuth(validator, slog.New(slog.DiscardHandler))(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		reached = true
		ctx := r.Context()
		principal = Principal{
			UserID:      requestcontext.UserID(ctx),
			FacilityID:  requestcontext.FacilityID(ctx),
			Permissions: requestcontext.Permissions(ctx),
		}
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer good", http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"invalid token", "Bearer forged", http.StatusUnauthorized},
		{"token without user", "Bearer anonymous", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached = false
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, reached)
		})
	}

	assert.Equal(t, Principal{UserID: "user-1", FacilityID: "fac-1", Permissions: []string{"SEND_MESSAGES"}}, principal)
}
