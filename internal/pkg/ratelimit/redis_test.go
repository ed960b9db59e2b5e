package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/ManuelReschke/EventSite/internal/pkg/env"
)

const isolatedRateLimitTestRedisDB = 13

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", env.GetEnv("CACHE_HOST", "localhost"), env.GetEnv("CACHE_PORT", "6379")),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       isolatedRateLimitTestRedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisLimiterDeniesAfterMax(t *testing.T) {
	client := newTestRedis(t)
	scope := "test-" + uuid.NewString()
	limiter := NewRedis(client, scope, 5, time.Minute)
	ctx := context.Background()
	t.Cleanup(func() { client.Del(context.Background(), limiter.key("203.0.113.9")) })

	for i := 0; i < 5; i++ {
		assert.True(t, limiter.Allow(ctx, "203.0.113.9"))
	}
	assert.False(t, limiter.Allow(ctx, "203.0.113.9"))

	ttl, err := client.TTL(ctx, limiter.key("203.0.113.9")).Result()
	assert.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestRedisLimiterFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewRedis(client, "contact", 1, time.Minute)
	assert.True(t, limiter.Allow(context.Background(), "203.0.113.9"))
	assert.True(t, limiter.Allow(context.Background(), "203.0.113.9"))
}
