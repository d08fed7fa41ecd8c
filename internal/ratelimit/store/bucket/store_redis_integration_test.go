//go:build integration

package bucket_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"carehub/internal/ratelimit/store/bucket"
	"carehub/pkg/testutil/containers"
)

type RedisBucketStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *bucket.RedisBucketStore
}

func TestRedisBucketStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisBucketStoreSuite))
}

func (s *RedisBucketStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = bucket.NewRedisBucketStore(s.redis.Client)
}

func (s *RedisBucketStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisBucketStoreSuite) TestLimitAndReset() {
	ctx := context.Background()
	for i := range 3 {
		result, err := s.store.Allow(ctx, "user:nurse-1", 3, time.Minute)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(2-i, result.Remaining)
	}

	result, err := s.store.Allow(ctx, "user:nurse-1", 3, time.Minute)
	s.Require().NoError(err)
	s.False(result.Allowed)
	s.Positive(result.RetryAfter)

	count, err := s.store.GetCurrentCount(ctx, "user:nurse-1")
	s.Require().NoError(err)
	s.Equal(3, count)

	s.Require().NoError(s.store.Reset(ctx, "user:nurse-1"))
	result, err = s.store.Allow(ctx, "user:nurse-1", 3, time.Minute)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *RedisBucketStoreSuite) TestConcurrentChecksNeverOverAdmit() {
	ctx := context.Background()
	var (
		wg      sync.WaitGroup
		allowed atomic.Int32
	)
	for range 100 {
		wg.Go(func() {
			result, err := s.store.Allow(ctx, "user:burst", 25, time.Minute)
			if err == nil && result.Allowed {
				allowed.Add(1)
			}
		})
	}
	wg.Wait()
	s.Equal(int32(25), allowed.Load())
}
