package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ManuelReschke/EventSite/app/controllers"
	"github.com/ManuelReschke/EventSite/app/repository"
	"github.com/ManuelReschke/EventSite/internal/pkg/config"
	"github.com/ManuelReschke/EventSite/internal/pkg/intake"
	"github.com/ManuelReschke/EventSite/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/EventSite/internal/pkg/ratelimit"
	"github.com/ManuelReschke/EventSite/internal/pkg/statistics"
)

// Router registers one group of routes.
type Router interface {
	InstallRouter(app *fiber.App)
}

// Dependencies are the collaborators the routes are built from. Tests swap
// any of them for fakes.
type Dependencies struct {
	Config config.Config
	DB     *gorm.DB
	Repos  *repository.Repositories

	Mailer         controllers.MailSender
	Verifier       intake.Verifier
	ContactLimiter ratelimit.Limiter

	// Cache is optional; it shares intake counters and caches statistics.
	Cache *redis.Client

	// LimiterStorage backs the CMS read limiter; nil keeps it in memory.
	LimiterStorage fiber.Storage
	// CMSWindow overrides the CMS limiter window, one minute by default.
	CMSWindow time.Duration
}

func InstallRouter(app *fiber.App, deps Dependencies) {
	counters := counter.NewIntake(deps.Cache)
	stats := statistics.NewService(deps.Repos.Quote, deps.Cache)

	intakeOpts := controllers.IntakeOptions{
		Limiter:         deps.ContactLimiter,
		Verifier:        deps.Verifier,
		DispatchTimeout: deps.Config.DispatchTimeout,
		Observer:        counters,
	}

	setup(app,
		NewHealthRouter(controllers.NewHealthController(deps.DB)),
		NewIntakeRouter(
			controllers.NewContactPipeline(intakeOpts, deps.Mailer),
			controllers.NewQuotePipeline(intakeOpts, deps.Config.EffectiveQuoteCaptchaSkip(), deps.Repos.Quote),
		),
		NewApiRouter(deps),
		NewAdminRouter(deps, stats, counters),
	)
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
