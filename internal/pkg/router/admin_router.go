package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/EventSite/app/controllers"
	"github.com/ManuelReschke/EventSite/internal/pkg/constants"
	"github.com/ManuelReschke/EventSite/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/EventSite/internal/pkg/middleware"
	"github.com/ManuelReschke/EventSite/internal/pkg/statistics"
)

type AdminRouter struct {
	auth         fiber.Handler
	stats        *controllers.AdminStatsController
	quotes       *controllers.AdminQuoteController
	pages        *controllers.PageController
	testimonials *controllers.TestimonialController
}

func NewAdminRouter(deps Dependencies, stats *statistics.Service, counters *counter.Intake) *AdminRouter {
	return &AdminRouter{
		auth:         middleware.RequireAdmin(deps.Config.AdminUser, deps.Config.AdminPasswordHash),
		stats:        controllers.NewAdminStatsController(stats, counters),
		quotes:       controllers.NewAdminQuoteController(deps.Repos.Quote, stats),
		pages:        controllers.NewPageController(deps.Repos.Page),
		testimonials: controllers.NewTestimonialController(deps.Repos.Testimonial),
	}
}

func (h AdminRouter) InstallRouter(app *fiber.App) {
	adminGroup := app.Group(constants.AdminGroup, h.auth)

	// Quote dashboard
	adminGroup.Get("/stats", h.stats.HandleStats)
	adminGroup.Get("/quotes", h.quotes.HandleList)
	adminGroup.Get("/quotes/:id", h.quotes.HandleGet)
	adminGroup.Patch("/quotes/:id/status", h.quotes.HandleUpdateStatus)
	adminGroup.Delete("/quotes/:id", h.quotes.HandleDelete)

	// Pages
	adminGroup.Get("/pages", h.pages.HandleAdminList)
	adminGroup.Post("/pages", h.pages.HandleAdminCreate)
	adminGroup.Put("/pages/:id", h.pages.HandleAdminUpdate)
	adminGroup.Delete("/pages/:id", h.pages.HandleAdminDelete)

	// Testimonials
	adminGroup.Get("/testimonials", h.testimonials.HandleAdminList)
	adminGroup.Post("/testimonials", h.testimonials.HandleAdminCreate)
	adminGroup.Put("/testimonials/:id", h.testimonials.HandleAdminUpdate)
	adminGroup.Delete("/testimonials/:id", h.testimonials.HandleAdminDelete)
}
