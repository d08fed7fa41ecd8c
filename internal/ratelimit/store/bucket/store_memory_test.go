package bucket

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

const (
	testLimit  = 10
	testWindow = time.Minute
)

type InMemoryBucketStoreSuite struct {
	suite.Suite
	store *InMemoryBucketStore
	clock time.Time
	ctx   context.Context
}

func TestInMemoryBucketStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryBucketStoreSuite))
}

func (s *InMemoryBucketStoreSuite) SetupTest() {
	s.clock = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	s.store = NewInMemoryBucketStore()
	s.store.now = func() time.Time { return s.clock }
	s.ctx = context.Background()
}

func (s *InMemoryBucketStoreSuite) TestAllow() {
	s.Run("first request allowed", func() {
		result, err := s.store.Allow(s.ctx, "user:first", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit, result.Limit)
		s.Equal(testLimit-1, result.Remaining)
		s.Equal(s.clock.Add(testWindow), result.ResetAt)
	})

	s.Run("request over limit refused with retry hint", func() {
		for range testLimit {
			_, err := s.store.Allow(s.ctx, "user:over", testLimit, testWindow)
			s.Require().NoError(err)
		}
		result, err := s.store.Allow(s.ctx, "user:over", testLimit, testWindow)
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.Equal(0, result.Remaining)
		s.Equal(60, result.RetryAfter)
	})

	s.Run("window slides", func() {
		for range testLimit {
			_, err := s.store.Allow(s.ctx, "user:slide", testLimit, testWindow)
			s.Require().NoError(err)
		}
		s.clock = s.clock.Add(testWindow + time.Second)

		result, err := s.store.Allow(s.ctx, "user:slide", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit-1, result.Remaining)
	})
}

func (s *InMemoryBucketStoreSuite) TestAllowN() {
	result, err := s.store.AllowN(s.ctx, "user:n", 7, testLimit, testWindow)
	s.Require().NoError(err)
	s.True(result.Allowed)
	s.Equal(3, result.Remaining)

	result, err = s.store.AllowN(s.ctx, "user:n", 4, testLimit, testWindow)
	s.Require().NoError(err)
	s.False(result.Allowed)
	s.Equal(3, result.Remaining, "a refused request consumes nothing")

	count, err := s.store.GetCurrentCount(s.ctx, "user:n")
	s.Require().NoError(err)
	s.Equal(7, count)
}

func (s *InMemoryBucketStoreSuite) TestReset() {
	_, err := s.store.AllowN(s.ctx, "user:reset", testLimit, testLimit, testWindow)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Reset(s.ctx, "user:reset"))

	count, err := s.store.GetCurrentCount(s.ctx, "user:reset")
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *InMemoryBucketStoreSuite) TestConcurrent() {
	const limit = 100
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 200 {
		wg.Go(func() {
			result, err := s.store.Allow(s.ctx, "user:concurrent", limit, testWindow)
			if err == nil && result.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		})
	}
	wg.Wait()
	s.Equal(limit, allowed)
}
