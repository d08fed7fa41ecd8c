package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/twmb/franz-go/pkg/kgo"

	claimsstore "carehub/internal/claims/store"
	"carehub/internal/platform/config"
	"carehub/internal/platform/kafka"
	"carehub/internal/platform/postgres"
	"carehub/internal/platform/redis"
	ratelimitmw "carehub/internal/ratelimit/middleware"
	"carehub/internal/ratelimit/store/bucket"
	httptransport "carehub/internal/transport/http"
	audit "carehub/pkg/platform/audit"
	kafkasink "carehub/pkg/platform/audit/store/kafka"
	auditmemory "carehub/pkg/platform/audit/store/memory"
	auditpostgres "carehub/pkg/platform/audit/store/postgres"
	"carehub/pkg/platform/audit/relay"
	"carehub/pkg/platform/audit/store/redisstream"
)

// infrastructure holds the external connections the process opened. Fields
// are nil for backends that are not configured.
type infrastructure struct {
	db       *sql.DB
	redis    *redis.Client
	producer *kgo.Client
	consumer *kgo.Client
}

func connect(ctx context.Context, cfg config.Config, log *slog.Logger) (*infrastructure, error) {
	infra := &infrastructure{}
	fail := func(err error) (*infrastructure, error) {
		infra.Close()
		return nil, err
	}

	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return fail(err)
		}
		infra.db = db
		if err := postgres.Migrate(ctx, db, auditpostgres.Schema, claimsstore.GrantSchema); err != nil {
			return fail(err)
		}
		log.Info("connected to postgres")
	}

	if cfg.Audit.Enabled(config.SinkRedis) || cfg.RateLimit.Store == config.RateLimitRedis {
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return fail(err)
		}
		infra.redis = client
		log.Info("connected to redis")
	}

	if cfg.Audit.Enabled(config.SinkKafka) || cfg.Audit.ConsumeTopic {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return fail(err)
		}
		infra.producer = producer
		if err := kafka.EnsureTopic(ctx, producer, cfg.Audit.KafkaTopic, cfg.Kafka.Partitions, cfg.Kafka.Replication); err != nil {
			return fail(err)
		}
		log.Info("connected to kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Audit.KafkaTopic)
	}

	if cfg.Audit.ConsumeTopic {
		consumer, err := kafka.NewConsumer(cfg.Kafka, cfg.Audit.KafkaTopic)
		if err != nil {
			return fail(err)
		}
		infra.consumer = consumer
	}
	return infra, nil
}

// Close releases every opened connection.
func (i *infrastructure) Close() {
	if i.consumer != nil {
		i.consumer.Close()
	}
	if i.producer != nil {
		i.producer.Close()
	}
	if i.redis != nil {
		_ = i.redis.Close()
	}
	if i.db != nil {
		_ = i.db.Close()
	}
}

func (i *infrastructure) auditStore() *auditpostgres.Store {
	return auditpostgres.New(i.db)
}

func (i *infrastructure) grantStore() *claimsstore.PostgresGrantStore {
	return claimsstore.NewPostgresGrantStore(i.db)
}

func (i *infrastructure) healthChecks(extra map[string]httptransport.HealthCheck) map[string]httptransport.HealthCheck {
	checks := maps.Clone(extra)
	if checks == nil {
		checks = map[string]httptransport.HealthCheck{}
	}
	if i.db != nil {
		checks["postgres"] = i.db.PingContext
	}
	if i.redis != nil {
		checks["redis"] = i.redis.Health
	}
	if i.producer != nil {
		checks["kafka"] = func(ctx context.Context) error { return kafka.Health(ctx, i.producer) }
	}
	return checks
}

// auditTrail is the local store the dispatcher writes to, the relays that
// forward its outbox to remote sinks, and the read side behind the audit
// endpoints.
type auditTrail struct {
	sink   audit.Sink
	reader httptransport.AuditReader
	relays []*relay.Relay
	health map[string]httptransport.HealthCheck
}

func buildAuditTrail(cfg config.Config, infra *infrastructure, reg prometheus.Registerer, log *slog.Logger) (auditTrail, error) {
	remote := cfg.Audit.Remote()

	var local interface {
		audit.Outbox
		httptransport.AuditReader
	}
	switch cfg.Audit.Local() {
	case config.SinkPostgres:
		local = auditpostgres.New(infra.db, auditpostgres.WithDestinations(remote...))
	default:
		local = auditmemory.NewInMemoryStore(auditmemory.WithDestinations(remote...))
	}
	trail := auditTrail{
		sink:   local,
		reader: local,
		health: map[string]httptransport.HealthCheck{},
	}
	// Records consumed from the topic land in postgres, which is then the
	// authoritative read side.
	if cfg.Audit.ConsumeTopic && cfg.Audit.Local() == config.SinkMemory {
		trail.reader = infra.auditStore()
	}

	relayMetrics := relay.NewMetrics(reg)
	for _, name := range remote {
		var sink audit.Sink
		switch name {
		case config.SinkRedis:
			sink = redisstream.New(infra.redis.Client, cfg.Audit.RedisStream)
		case config.SinkKafka:
			sink = kafkasink.New(infra.producer, cfg.Audit.KafkaTopic)
		default:
			return auditTrail{}, fmt.Errorf("unknown audit sink %q", name)
		}
		guarded := audit.Guard("audit-"+name, sink, log)
		trail.health["audit_"+name] = guarded.Health
		trail.relays = append(trail.relays, relay.New(local, name, guarded,
			relay.WithLogger(log.With("component", "audit-relay", "destination", name)),
			relay.WithMetrics(relayMetrics),
			relay.WithInterval(cfg.Audit.RelayInterval),
		))
	}
	return trail, nil
}

func buildRateLimiter(cfg config.Config, infra *infrastructure, reg prometheus.Registerer, log *slog.Logger) func(http.Handler) http.Handler {
	var store ratelimitmw.BucketStore = bucket.NewInMemoryBucketStore()
	if cfg.RateLimit.Store == config.RateLimitRedis {
		store = bucket.NewRedisBucketStore(infra.redis.Client)
	}
	limiter := ratelimitmw.New(store, cfg.RateLimit.PerMinute, time.Minute, log,
		ratelimitmw.WithRegisterer(reg),
	)
	return limiter.PerCaller
}
