package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/EventSite/app/controllers"
	"github.com/ManuelReschke/EventSite/internal/pkg/constants"
)

// ApiRouter serves the public CMS reads the site renders from.
type ApiRouter struct {
	pages        *controllers.PageController
	testimonials *controllers.TestimonialController
	limiter      fiber.Handler
}

func NewApiRouter(deps Dependencies) *ApiRouter {
	window := deps.CMSWindow
	if window <= 0 {
		window = time.Minute
	}
	max := deps.Config.CMSRateLimitMax
	if max <= 0 {
		max = 60
	}

	return &ApiRouter{
		pages:        controllers.NewPageController(deps.Repos.Page),
		testimonials: controllers.NewTestimonialController(deps.Repos.Testimonial),
		limiter: limiter.New(limiter.Config{
			Max:          max,
			Expiration:   window,
			KeyGenerator: controllers.ClientAddress,
			Storage:      deps.LimiterStorage,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error":   "too_many_requests",
					"message": "Too many requests. Please try again later.",
				})
			},
		}),
	}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	v1 := app.Group(constants.CMSGroup, h.limiter)
	v1.Get("/pages", h.pages.HandleIndex)
	v1.Get("/pages/:slug", h.pages.HandleShow)
	v1.Get("/testimonials", h.testimonials.HandlePublished)
}
