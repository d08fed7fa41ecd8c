package bucket

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"carehub/internal/ratelimit/models"
)

// slidingWindowScript trims entries older than the window, then adds cost
// members when they fit. Returns {allowed, count, oldest_ms}.
var slidingWindowScript = redis.NewScript(`
local key    = KEYS[1]
local now    = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit  = tonumber(ARGV[3])
local cost   = tonumber(ARGV[4])
local member = ARGV[5]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
local allowed = 0
if count + cost <= limit then
	for i = 1, cost do
		redis.call('ZADD', key, now, member .. ':' .. i)
	end
	count = count + cost
	allowed = 1
end
redis.call('PEXPIRE', key, window)
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local oldestScore = now
if oldest[2] then
	oldestScore = tonumber(oldest[2])
end
return {allowed, count, oldestScore}
`)

// RedisBucketStore shares sliding windows between replicas through Redis
// sorted sets. Each check is one script call, so concurrent replicas can't
// both take the last slot.
type RedisBucketStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisBucketStore(client *redis.Client) *RedisBucketStore {
	return &RedisBucketStore{client: client, prefix: "carehub:ratelimit:", now: time.Now}
}

// Allow checks and, when allowed, counts one request.
func (s *RedisBucketStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	return s.AllowN(ctx, key, 1, limit, window)
}

// AllowN is Allow for a request that costs more than one slot.
func (s *RedisBucketStore) AllowN(ctx context.Context, key string, cost int, limit int, window time.Duration) (*models.RateLimitResult, error) {
	now := s.now()
	res, err := slidingWindowScript.Run(ctx, s.client, []string{s.prefix + key},
		now.UnixMilli(),
		window.Milliseconds(),
		limit,
		cost,
		uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("rate limit script returned %d values", len(res))
	}

	count := int(res[1])
	resetAt := time.UnixMilli(res[2]).Add(window)
	result := &models.RateLimitResult{
		Allowed:   res[0] == 1,
		Limit:     limit,
		Remaining: max(limit-count, 0),
		ResetAt:   resetAt,
	}
	if !result.Allowed {
		result.RetryAfter = models.RetryAfterSeconds(now, resetAt)
	}
	return result, nil
}

// Reset forgets key.
func (s *RedisBucketStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// GetCurrentCount returns the requests counted at the last check of key.
// Entries older than the window are only trimmed by the next check.
func (s *RedisBucketStore) GetCurrentCount(ctx context.Context, key string) (int, error) {
	n, err := s.client.ZCard(ctx, s.prefix+key).Result()
	if err != nil {
		return 0, fmt.Errorf("count rate limit window: %w", err)
	}
	return int(n), nil
}
