package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carehub/internal/ratelimit/models"
	"carehub/internal/ratelimit/store/bucket"
	id "carehub/pkg/domain"
	"carehub/pkg/requestcontext"
)

type failingStore struct{}

func (failingStore) Allow(context.Context, string, int, time.Duration) (*models.RateLimitResult, error) {
	return nil, errors.New("redis: connection refused")
}

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func serve(h http.Handler, userID, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/actions/thread.create", nil)
	ctx := requestcontext.WithClientMetadata(req.Context(), ip, "test")
	if userID != "" {
		ctx = requestcontext.WithUserID(ctx, id.UserID(userID))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req.WithContext(ctx))
	return w
}

func TestPerCaller(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	reg := prometheus.NewRegistry()
	m := New(bucket.NewInMemoryBucketStore(), 2, time.Minute, logger, WithRegisterer(reg))
	h := m.PerCaller(ok)

	assert.Equal(t, http.StatusNoContent, serve(h, "nurse-1", "10.0.0.1").Code)
	w := serve(h, "nurse-1", "10.0.0.2")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = serve(h, "nurse-1", "10.0.0.3")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected))

	assert.Equal(t, http.StatusNoContent, serve(h, "nurse-2", "10.0.0.1").Code, "limits are per user")
}

func TestPerCaller_AnonymousKeyedByIP(t *testing.T) {
	m := New(bucket.NewInMemoryBucketStore(), 1, time.Minute, slog.New(slog.DiscardHandler))
	h := m.PerCaller(ok)

	assert.Equal(t, http.StatusNoContent, serve(h, "", "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, "", "10.0.0.1").Code)
	assert.Equal(t, http.StatusNoContent, serve(h, "", "10.0.0.2").Code)
}

func TestPerCaller_StoreFailureLetsRequestsThrough(t *testing.T) {
	h := New(failingStore{}, 1, time.Minute, slog.New(slog.DiscardHandler)).PerCaller(ok)
	for range 3 {
		assert.Equal(t, http.StatusNoContent, serve(h, "nurse-1", "10.0.0.1").Code)
	}
}

func TestPerCaller_Disabled(t *testing.T) {
	for name, m := range map[string]*Middleware{
		"option":     New(failingStore{}, 1, time.Minute, slog.New(slog.DiscardHandler), WithDisabled(true)),
		"zero limit": New(failingStore{}, 0, time.Minute, slog.New(slog.DiscardHandler)),
	} {
		t.Run(name, func(t *testing.T) {
			h := m.PerCaller(ok)
			w := serve(h, "nurse-1", "10.0.0.1")
			assert.Equal(t, http.StatusNoContent, w.Code)
			assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
		})
	}
}
