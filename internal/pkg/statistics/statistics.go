package statistics

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/ManuelReschke/EventSite/app/models"
)

const (
	CacheKeyQuoteStats = "statistics:quotes"
	CacheExpiration    = time.Minute
)

// QuoteStats summarises the quote pipeline for the admin dashboard.
type QuoteStats struct {
	Total     int64            `json:"total"`
	ByStatus  map[string]int64 `json:"by_status"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// QuoteCounter counts quotes; an empty status counts all of them.
type QuoteCounter interface {
	Count(ctx context.Context, status string) (int64, error)
}

// Service reads quote statistics through the cache when one is configured.
type Service struct {
	quotes QuoteCounter
	cache  *redis.Client
	now    func() time.Time
}

func NewService(quotes QuoteCounter, cache *redis.Client) *Service {
	return &Service{quotes: quotes, cache: cache, now: time.Now}
}

// QuoteStats returns cached statistics or counts them from the database.
func (s *Service) QuoteStats(ctx context.Context) (QuoteStats, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, CacheKeyQuoteStats).Bytes()
		if err == nil {
			var stats QuoteStats
			if err := json.Unmarshal(raw, &stats); err == nil {
				return stats, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.WithError(err).Warn("[Statistics] cache read failed")
		}
	}

	stats, err := s.count(ctx)
	if err != nil {
		return QuoteStats{}, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, CacheKeyQuoteStats, raw, CacheExpiration).Err(); err != nil {
				log.WithError(err).Warn("[Statistics] cache write failed")
			}
		}
	}
	return stats, nil
}

// Invalidate drops the cached statistics, e.g. after a status change.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, CacheKeyQuoteStats).Err(); err != nil {
		log.WithError(err).Warn("[Statistics] cache invalidation failed")
	}
}

func (s *Service) count(ctx context.Context) (QuoteStats, error) {
	stats := QuoteStats{ByStatus: make(map[string]int64), UpdatedAt: s.now().UTC()}
	for _, status := range models.QuoteStatuses() {
		n, err := s.quotes.Count(ctx, status)
		if err != nil {
			return QuoteStats{}, err
		}
		stats.ByStatus[status] = n
		stats.Total += n
	}
	return stats, nil
}
