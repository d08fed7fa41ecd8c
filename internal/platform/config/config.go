// Package config reads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	textutil "carehub/pkg/platform/strings"
)

// Audit sink names accepted in CAREHUB_AUDIT_SINKS.
const (
	SinkMemory   = "memory"
	SinkPostgres = "postgres"
	SinkRedis    = "redis"
	SinkKafka    = "kafka"
)

// Claims sources accepted in CAREHUB_CLAIMS_SOURCE.
const (
	ClaimsFromToken    = "token"
	ClaimsFromDatabase = "database"
)

const devSigningKey = "dev-secret-key-change-in-production"

// Config is the full process configuration.
type Config struct {
	Server    Server
	Audit     Audit
	Database  Database
	Redis     RedisConfig
	Kafka     Kafka
	Claims    Claims
	RateLimit RateLimit
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	JWTSigningKey   string
	JWTIssuer       string
	JWTAudience     string
	AdminTokenHash  string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Audit selects where audit records go. Records are written synchronously
// to one local store (postgres when listed, memory otherwise); redis and
// kafka receive them from that store's outbox through relays.
type Audit struct {
	Sinks         []string
	RedisStream   string
	KafkaTopic    string
	RelayInterval time.Duration
	// ConsumeTopic runs the topic -> postgres materializer in-process.
	ConsumeTopic bool
}

// Enabled reports whether sink is configured.
func (a Audit) Enabled(sink string) bool {
	return slices.Contains(a.Sinks, sink)
}

// Local returns the store that takes each record synchronously.
func (a Audit) Local() string {
	if a.Enabled(SinkPostgres) {
		return SinkPostgres
	}
	return SinkMemory
}

// Remote returns the relayed sinks in configured order.
func (a Audit) Remote() []string {
	var remote []string
	for _, sink := range a.Sinks {
		if sink == SinkRedis || sink == SinkKafka {
			remote = append(remote, sink)
		}
	}
	return remote
}

// Database configures the PostgreSQL pool.
type Database struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka configures the audit topic producer.
type Kafka struct {
	Brokers       []string
	ConsumerGroup string
	Partitions    int32
	Replication   int16
}

// Rate limit stores accepted in CAREHUB_RATE_LIMIT_STORE.
const (
	RateLimitMemory = "memory"
	RateLimitRedis  = "redis"
)

// RateLimit bounds action calls per caller. PerMinute 0 disables it.
type RateLimit struct {
	PerMinute int
	Store     string
}

// Claims selects where caller permissions come from.
type Claims struct {
	Source string
}

// FromEnv builds the configuration, applying development defaults.
func FromEnv() (Config, error) {
	cfg := Config{
		Server: Server{
			Addr:            getEnv("CAREHUB_ADDR", ":8080"),
			JWTSigningKey:   getEnv("JWT_SIGNING_KEY", devSigningKey),
			JWTIssuer:       getEnv("JWT_ISSUER", "carehub"),
			JWTAudience:     getEnv("JWT_AUDIENCE", "carehub-api"),
			AdminTokenHash:  os.Getenv("ADMIN_TOKEN_HASH"),
			LogLevel:        getEnv("LOG_LEVEL", "info"),
			LogFormat:       getEnv("LOG_FORMAT", "json"),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Audit: Audit{
			Sinks:         textutil.DedupeAndTrimLower(strings.Split(getEnv("CAREHUB_AUDIT_SINKS", SinkMemory), ",")),
			RedisStream:   getEnv("CAREHUB_AUDIT_STREAM", "carehub:audit"),
			KafkaTopic:    getEnv("CAREHUB_AUDIT_TOPIC", "carehub.audit"),
			RelayInterval: getDuration("CAREHUB_AUDIT_RELAY_INTERVAL", time.Second),
			ConsumeTopic:  os.Getenv("CAREHUB_AUDIT_CONSUME") == "true",
		},
		Database: Database{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers:       textutil.SplitList(os.Getenv("KAFKA_BROKERS")),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "carehub-audit-materializer"),
			Partitions:    int32(getInt("KAFKA_AUDIT_PARTITIONS", 3)),
			Replication:   int16(getInt("KAFKA_AUDIT_REPLICATION", 1)),
		},
		Claims: Claims{
			Source: getEnv("CAREHUB_CLAIMS_SOURCE", ClaimsFromToken),
		},
		RateLimit: RateLimit{
			PerMinute: getInt("CAREHUB_RATE_LIMIT_PER_MINUTE", 120),
			Store:     getEnv("CAREHUB_RATE_LIMIT_STORE", RateLimitMemory),
		},
	}
	return cfg, cfg.Validate()
}

// Validate checks that every selected backend has what it needs.
func (c Config) Validate() error {
	if len(c.Audit.Sinks) == 0 {
		return fmt.Errorf("at least one audit sink is required")
	}
	for _, sink := range c.Audit.Sinks {
		switch sink {
		case SinkMemory:
		case SinkPostgres:
			if c.Database.URL == "" {
				return fmt.Errorf("audit sink %q requires DATABASE_URL", sink)
			}
		case SinkRedis:
			if c.Redis.URL == "" {
				return fmt.Errorf("audit sink %q requires REDIS_URL", sink)
			}
		case SinkKafka:
			if len(c.Kafka.Brokers) == 0 {
				return fmt.Errorf("audit sink %q requires KAFKA_BROKERS", sink)
			}
		default:
			return fmt.Errorf("unknown audit sink %q", sink)
		}
	}
	if c.Audit.Enabled(SinkMemory) && c.Audit.Enabled(SinkPostgres) {
		return fmt.Errorf("audit sinks %q and %q cannot be combined", SinkMemory, SinkPostgres)
	}
	if len(c.Audit.Remote()) > 0 && c.Audit.RelayInterval <= 0 {
		return fmt.Errorf("CAREHUB_AUDIT_RELAY_INTERVAL must be positive")
	}
	if c.Audit.ConsumeTopic && (len(c.Kafka.Brokers) == 0 || c.Database.URL == "") {
		return fmt.Errorf("CAREHUB_AUDIT_CONSUME requires KAFKA_BROKERS and DATABASE_URL")
	}
	switch c.Claims.Source {
	case ClaimsFromToken:
	case ClaimsFromDatabase:
		if c.Database.URL == "" {
			return fmt.Errorf("claims source %q requires DATABASE_URL", c.Claims.Source)
		}
	default:
		return fmt.Errorf("unknown claims source %q", c.Claims.Source)
	}
	switch c.RateLimit.Store {
	case RateLimitMemory:
	case RateLimitRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("rate limit store %q requires REDIS_URL", c.RateLimit.Store)
		}
	default:
		return fmt.Errorf("unknown rate limit store %q", c.RateLimit.Store)
	}
	if c.RateLimit.PerMinute < 0 {
		return fmt.Errorf("CAREHUB_RATE_LIMIT_PER_MINUTE must not be negative")
	}
	return nil
}

// IsDevSigningKey reports whether the development signing key is in use.
func (s Server) IsDevSigningKey() bool {
	return s.JWTSigningKey == devSigningKey
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
