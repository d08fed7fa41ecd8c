// Package middleware limits how often one caller may run actions.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"carehub/internal/ratelimit/models"
	"carehub/pkg/platform/httputil"
	"carehub/pkg/requestcontext"
)

// BucketStore is satisfied by the bucket package stores.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

type Middleware struct {
	store    BucketStore
	limit    int
	window   time.Duration
	logger   *slog.Logger
	rejected prometheus.Counter
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns the limiter into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

// WithRegisterer counts refused requests in reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(m *Middleware) {
		m.rejected = promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "carehub_ratelimit_rejected_total",
			Help: "Requests refused by the per-caller rate limit.",
		})
	}
}

// New allows limit requests per caller per window.
func New(store BucketStore, limit int, window time.Duration, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		store:  store,
		limit:  limit,
		window: window,
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if limit <= 0 {
		m.disabled = true
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// PerCaller keys the limit by the authenticated user, or by client IP for
// anonymous requests. Store failures let the request through.
func (m *Middleware) PerCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		key := callerKey(ctx)

		result, err := m.store.Allow(ctx, key, m.limit, m.window)
		if err != nil {
			m.logger.ErrorContext(ctx, "failed to check rate limit",
				"request_id", requestcontext.RequestID(ctx),
				"key", key,
				"error", err,
			)
			next.ServeHTTP(w, r)
			return
		}

		addRateLimitHeaders(w, result)
		if !result.Allowed {
			if m.rejected != nil {
				m.rejected.Inc()
			}
			m.logger.WarnContext(ctx, "rate limit exceeded",
				"request_id", requestcontext.RequestID(ctx),
				"key", key,
			)
			w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
			httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.ErrorResponse{
				Error:            "rate_limit_exceeded",
				ErrorDescription: "Too many requests. Please try again later.",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func callerKey(ctx context.Context) string {
	if uid := requestcontext.UserID(ctx); !uid.IsNil() {
		return "user:" + string(uid)
	}
	return "ip:" + requestcontext.ClientIP(ctx)
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
