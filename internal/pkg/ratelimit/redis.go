package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Redis is a fixed window limiter shared by every process that talks to the
// same Redis/Dragonfly instance. The counter key expires with the window.
type Redis struct {
	client *redis.Client
	scope  string
	max    int
	window time.Duration
}

func NewRedis(client *redis.Client, scope string, max int, window time.Duration) *Redis {
	if max <= 0 {
		max = DefaultMax
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Redis{client: client, scope: scope, max: max, window: window}
}

func (r *Redis) key(addr string) string {
	return fmt.Sprintf("ratelimit:%s:%s", r.scope, addr)
}

// Allow fails open on Redis errors; CAPTCHA remains the primary control.
func (r *Redis) Allow(ctx context.Context, addr string) bool {
	key := r.key(addr)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		log.WithError(err).WithField("scope", r.scope).Warn("rate limit backend unavailable, allowing request")
		return true
	}

	return incr.Val() <= int64(r.max)
}
