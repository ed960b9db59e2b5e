package counter

import (
	"context"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const intakeKeyPrefix = "intake:counters:"

// Intake counts form outcomes ("accepted", "honeypot", "rate_limited", ...)
// per form. With a Redis client the counters live in one hash per form and
// are shared by every instance; without one they are process local.
type Intake struct {
	client *redis.Client

	mu    sync.Mutex
	local map[string]map[string]int64
}

func NewIntake(client *redis.Client) *Intake {
	return &Intake{client: client, local: make(map[string]map[string]int64)}
}

func intakeKey(form string) string {
	return intakeKeyPrefix + form
}

// Observe increments the outcome counter. A failing Redis call is logged and
// the count kept locally instead.
func (c *Intake) Observe(ctx context.Context, form, outcome string) {
	if c.client != nil {
		err := c.client.HIncrBy(ctx, intakeKey(form), outcome, 1).Err()
		if err == nil {
			return
		}
		log.WithError(err).WithField("form", form).Warn("[Counter] redis increment failed, counting locally")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.local[form] == nil {
		c.local[form] = make(map[string]int64)
	}
	c.local[form][outcome]++
}

// Snapshot returns the counters of the given forms, Redis and local merged.
func (c *Intake) Snapshot(ctx context.Context, forms ...string) (map[string]map[string]int64, error) {
	out := make(map[string]map[string]int64, len(forms))
	for _, form := range forms {
		out[form] = make(map[string]int64)
	}

	if c.client != nil {
		for _, form := range forms {
			data, err := c.client.HGetAll(ctx, intakeKey(form)).Result()
			if err != nil {
				return nil, err
			}
			for outcome, v := range data {
				n, err := strconv.ParseInt(v, 10, 64)
				if err != nil {
					continue
				}
				out[form][outcome] += n
			}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, form := range forms {
		for outcome, n := range c.local[form] {
			out[form][outcome] += n
		}
	}
	return out, nil
}
