package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/ManuelReschke/EventSite/internal/pkg/statistics"
)

// IntakeCounters exposes per form outcome counts.
type IntakeCounters interface {
	Snapshot(ctx context.Context, forms ...string) (map[string]map[string]int64, error)
}

// AdminStatsController serves the dashboard summary
type AdminStatsController struct {
	stats    *statistics.Service
	counters IntakeCounters
}

func NewAdminStatsController(stats *statistics.Service, counters IntakeCounters) *AdminStatsController {
	return &AdminStatsController{stats: stats, counters: counters}
}

// HandleStats returns quote counts by status and intake outcome counters.
func (sc *AdminStatsController) HandleStats(c *fiber.Ctx) error {
	quotes, err := sc.stats.QuoteStats(c.UserContext())
	if err != nil {
		log.WithError(err).Error("[AdminStats] quote statistics failed")
		return apiError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load statistics")
	}

	intakeCounts, err := sc.counters.Snapshot(c.UserContext(), "contact", "quote")
	if err != nil {
		log.WithError(err).Error("[AdminStats] intake counters failed")
		return apiError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load statistics")
	}

	return c.JSON(fiber.Map{"quotes": quotes, "intake": intakeCounts})
}
