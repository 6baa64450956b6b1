//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"docval/internal/extraction/cache"
	"docval/pkg/platform/sentinel"
	"docval/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *cache.RedisCache
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.cache = cache.NewRedisCache(s.redis.Client, 5*time.Minute)
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisCacheSuite) TestRoundTrip() {
	ctx := context.Background()
	key := cache.Key("google/gemini-2.0-flash-001", "cnpj_card", "texto do cartao")

	s.Require().NoError(s.cache.Set(ctx, key, []byte(`{"cnpj":"12345678000199"}`)))

	got, err := s.cache.Get(ctx, key)
	s.Require().NoError(err)
	s.JSONEq(`{"cnpj":"12345678000199"}`, string(got))

	ttl, err := s.redis.Client.TTL(ctx, "docval:extraction:"+key).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
}

func (s *RedisCacheSuite) TestMiss() {
	_, err := s.cache.Get(context.Background(), "absent")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisCacheSuite) TestExpiry() {
	ctx := context.Background()
	short := cache.NewRedisCache(s.redis.Client, time.Second)
	s.Require().NoError(short.Set(ctx, "k", []byte(`{}`)))

	s.Eventually(func() bool {
		_, err := short.Get(ctx, "k")
		return err != nil
	}, 5*time.Second, 100*time.Millisecond)
}
