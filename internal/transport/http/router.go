// Package httptransport exposes the action dispatcher and the audit trail
// over HTTP. Handlers stay thin: they resolve the caller, decode input and
// delegate to the dispatcher or the audit store.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"carehub/internal/platform/metrics"
	"carehub/pkg/platform/httputil"
	"carehub/pkg/platform/middleware/admin"
	"carehub/pkg/platform/middleware/auth"
	"carehub/pkg/platform/middleware/device"
	"carehub/pkg/platform/middleware/metadata"
	"carehub/pkg/platform/middleware/request"
)

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

// RouterConfig carries everything NewRouter mounts. RateLimit, when set,
// wraps the action endpoint only.
type RouterConfig struct {
	Handler        *Handler
	Tokens         auth.TokenValidator
	AdminTokenHash string
	Metrics        *metrics.Metrics
	Health         map[string]HealthCheck
	RateLimit      func(http.Handler) http.Handler
	Logger         *slog.Logger
}

// NewRouter wires all endpoints.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(request.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(device.Middleware)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Get("/health", healthHandler(cfg.Health, cfg.Logger))

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(auth.RequireAuth(cfg.Tokens, cfg.Logger))
		execute := http.Handler(http.HandlerFunc(cfg.Handler.handleExecute))
		if cfg.RateLimit != nil {
			execute = cfg.RateLimit(execute)
		}
		v1.Method(http.MethodPost, "/actions/{actionID}", execute)
		v1.Get("/actions", cfg.Handler.handleListActions)
		v1.Get("/audit/me", cfg.Handler.handleMyAudit)
	})

	r.Route("/admin", func(ar chi.Router) {
		ar.Use(admin.RequireAdminToken(cfg.AdminTokenHash, cfg.Logger))
		ar.Get("/audit/recent", cfg.Handler.handleRecentAudit)
	})
	return r
}

func healthHandler(checks map[string]HealthCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				logger.WarnContext(r.Context(), "health check failed", "dependency", name, "error", err)
				body[name] = "unavailable"
				body["status"] = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			body[name] = "ok"
		}
		httputil.WriteJSON(w, status, body)
	}
}
