// Package ratelimit bounds the number of accepted form submissions per caller
// address inside a fixed window.
package ratelimit

import (
	"context"
	"time"
)

const (
	DefaultMax    = 5
	DefaultWindow = 10 * time.Minute
)

// Limiter decides whether a request identified by key may proceed.
// Implementations never fail; backend errors resolve to allow or deny.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}
