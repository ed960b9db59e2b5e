package cache

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/storage/redis"
	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/ManuelReschke/EventSite/internal/pkg/env"
)

var client *goredis.Client

// Enabled reports whether a cache host is configured. Without one the site
// runs with in-process limiter state only.
func Enabled() bool {
	return env.GetEnv("CACHE_HOST", "") != ""
}

func addr() string {
	return fmt.Sprintf("%s:%s", env.GetEnv("CACHE_HOST", "localhost"), env.GetEnv("CACHE_PORT", "6379"))
}

// SetupCache connects to the Redis compatible cache server.
func SetupCache() {
	client = goredis.NewClient(&goredis.Options{
		Addr:     addr(),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("[Cache] Could not connect to cache server")
		return
	}
	log.WithField("addr", addr()).Info("[Cache] Connected")
}

// GetClient returns the Redis client instance
func GetClient() *goredis.Client {
	if client == nil {
		SetupCache()
	}
	return client
}

// NewFiberStorage returns a fiber.Storage for middleware state such as the
// CMS read limiter. It reuses the cache server address on database 1 so
// middleware keys stay apart from the intake limiter keys on database 0.
func NewFiberStorage() *redis.Storage {
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if h, p, err := net.SplitHostPort(GetClient().Options().Addr); err == nil {
		host = h
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})
}

// Close shuts the shared client down.
func Close() error {
	if client == nil {
		return nil
	}
	return client.Close()
}
