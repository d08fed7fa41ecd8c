package admin

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRequireAdminToken(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	logger := slog.New(slog.DiscardHandler)

	tests := []struct {
		name       string
		hash       string
		token      string
		wantStatus int
	}{
		{"matching token", string(hashed), "s3cret", http.StatusNoContent},
		{"wrong token", string(hashed), "guess", http.StatusUnauthorized},
		{"missing token", string(hashed), "", http.StatusUnauthorized},
		{"malformed hash", "not-a-bcrypt-hash", "s3cret", http.StatusUnauthorized},
		{"disabled", "", "s3cret", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/admin/audit/recent", nil)
			if tt.token != "" {
				r.Header.Set(HeaderAdminToken, tt.token)
			}
			w := httptest.NewRecorder()
			RequireAdminToken(tt.hash, logger)(ok).ServeHTTP(w, r)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestHashToken(t *testing.T) {
	_, err := HashToken("")
	require.Error(t, err)

	hashed, err := HashToken("rotate-me")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hashed), []byte("rotate-me")))
}
