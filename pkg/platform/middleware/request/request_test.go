package request

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"carehub/pkg/requestcontext"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, inbound string) (ctxID string, header string) {
	t.Helper()
	h := Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ctxID = requestcontext.RequestID(r.Context())
		assert.False(t, requestcontext.Now(r.Context()).IsZero())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if inbound != "" {
		req.Header.Set(HeaderRequestID, inbound)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return ctxID, w.Header().Get(HeaderRequestID)
}

func TestMiddleware(t *testing.T) {
	t.Run("generates an id", func(t *testing.T) {
		got, header := serve(t, "")
		_, err := uuid.Parse(got)
		require.NoError(t, err)
		assert.Equal(t, got, header)
	})

	t.Run("reuses a well-formed inbound id", func(t *testing.T) {
		got, _ := serve(t, "edge-7f3a.01")
		assert.Equal(t, "edge-7f3a.01", got)
	})

	t.Run("replaces a malformed inbound id", func(t *testing.T) {
		got, _ := serve(t, "bad id\r\ninjected")
		assert.NotEqual(t, "bad id\r\ninjected", got)
	})
}
