package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"carehub/internal/action"
	"carehub/internal/catalog"
	"carehub/internal/claims"
	"carehub/internal/platform/config"
	"carehub/internal/platform/httpserver"
	"carehub/internal/platform/logger"
	"carehub/internal/platform/metrics"
	httptransport "carehub/internal/transport/http"
	audit "carehub/pkg/platform/audit"
	"carehub/pkg/platform/audit/publisher"
	"carehub/pkg/platform/audit/worker"
)

// main wires dependencies, serves the router and keeps the lifecycle small.
// Domain behavior lives in the internal action packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "carehub: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Server.LogLevel, cfg.Server.LogFormat)
	if cfg.Server.IsDevSigningKey() {
		log.Warn("using the development JWT signing key; set JWT_SIGNING_KEY outside local environments")
	}
	if cfg.Server.AdminTokenHash == "" {
		log.Info("admin endpoints disabled; set ADMIN_TOKEN_HASH to enable them")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	infra, err := connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close()

	audits, err := buildAuditTrail(cfg, infra, m.Registry, log)
	if err != nil {
		return err
	}
	pub := publisher.New(audits.sink,
		publisher.WithLogger(log),
		publisher.WithMetrics(publisher.NewMetrics(m.Registry)),
	)
	factory := audit.NewFactory(pub)

	registry, err := catalog.New(catalog.InMemoryDeps())
	if err != nil {
		return fmt.Errorf("build action registry: %w", err)
	}
	dispatcher := action.NewDispatcher(registry,
		action.WithLogger(log),
		action.WithMetrics(action.NewMetrics(m.Registry)),
		action.WithAuditFactory(factory),
	)

	resolver, err := buildResolver(cfg, infra)
	if err != nil {
		return err
	}
	tokens := claims.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Handler:        httptransport.New(dispatcher, resolver, factory, audits.reader, log),
		Tokens:         tokens,
		AdminTokenHash: cfg.Server.AdminTokenHash,
		Metrics:        m,
		Health:         infra.healthChecks(audits.health),
		RateLimit:      buildRateLimiter(cfg, infra, m.Registry, log),
		Logger:         log,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	log.Info("starting carehub",
		"addr", cfg.Server.Addr,
		"audit_sinks", cfg.Audit.Sinks,
		"claims_source", cfg.Claims.Source,
		"actions", len(registry.Descriptors()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(gctx, srv, cfg.Server.ShutdownTimeout, log)
	})
	for _, r := range audits.relays {
		g.Go(func() error {
			err := r.Run(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	if infra.consumer != nil {
		w := worker.NewWorker(infra.consumer, infra.auditStore(), log.With("component", "audit-worker"))
		g.Go(func() error {
			err := w.Run(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("carehub stopped with error", "error", err)
		return err
	}
	log.Info("carehub stopped")
	return nil
}

func buildResolver(cfg config.Config, infra *infrastructure) (claims.Resolver, error) {
	switch cfg.Claims.Source {
	case config.ClaimsFromDatabase:
		if infra.db == nil {
			return nil, errors.New("claims from database require a postgres connection")
		}
		return claims.NewStoreResolver(infra.grantStore()), nil
	default:
		return claims.ContextResolver{}, nil
	}
}
