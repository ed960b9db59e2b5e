package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ManuelReschke/EventSite/app/controllers"
	"github.com/ManuelReschke/EventSite/app/repository"
	"github.com/ManuelReschke/EventSite/internal/pkg/cache"
	"github.com/ManuelReschke/EventSite/internal/pkg/config"
	"github.com/ManuelReschke/EventSite/internal/pkg/constants"
	"github.com/ManuelReschke/EventSite/internal/pkg/database"
	"github.com/ManuelReschke/EventSite/internal/pkg/env"
	applog "github.com/ManuelReschke/EventSite/internal/pkg/logger"
	"github.com/ManuelReschke/EventSite/internal/pkg/mail"
	"github.com/ManuelReschke/EventSite/internal/pkg/middleware"
	"github.com/ManuelReschke/EventSite/internal/pkg/ratelimit"
	"github.com/ManuelReschke/EventSite/internal/pkg/router"
	"github.com/ManuelReschke/EventSite/internal/pkg/turnstile"
)

const shutdownTimeout = 10 * time.Second

func main() {
	env.SetupEnvFile()
	applog.Setup(env.IsDev(), env.GetEnv("LOG_LEVEL", "info"))

	cfg := config.Load()
	app := NewApplication(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
		log.WithField("addr", addr).Info("Starting EventSite server")
		return app.Listen(addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("Server stopped with error")
	}
	if err := database.Close(); err != nil {
		log.WithError(err).Warn("Failed to close database")
	}
	if err := cache.Close(); err != nil {
		log.WithError(err).Warn("Failed to close cache client")
	}
}

func NewApplication(cfg config.Config) *fiber.App {
	database.SetupDatabase()

	var limiterStorage fiber.Storage
	var cacheClient *redis.Client
	if cache.Enabled() {
		cache.SetupCache()
		cacheClient = cache.GetClient()
		limiterStorage = cache.NewFiberStorage()
	}

	mailer := mail.NewMailer(cfg.SMTP)
	if err := mailer.Check(); err != nil {
		log.WithError(err).Error("SMTP is not configured, contact submissions will fail")
	}

	verifier := turnstile.NewVerifier(cfg.Turnstile)
	if !verifier.Configured() {
		log.Error("TURNSTILE_SECRET is not set, every form submission will be rejected")
	}

	if cfg.QuoteCaptchaSkip {
		if cfg.EffectiveQuoteCaptchaSkip() {
			log.Warn("QUOTE_CAPTCHA_SKIP is active, quote submissions are not verified")
		} else {
			log.Error("QUOTE_CAPTCHA_SKIP is ignored in prod")
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      "EventSite",
		ErrorHandler: controllers.ErrorHandler,
		BodyLimit:    64 * 1024,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,

		EnableTrustedProxyCheck: true,
		TrustedProxies:          cfg.TrustedProxies,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: env.GetEnv("CORS_ALLOW_ORIGINS", "*"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// fiber metrics
	if auth := middleware.RequireMetricsUser(cfg.MetricsUser, cfg.MetricsPassword); auth != nil {
		app.Get(constants.MetricsRoute, auth, monitor.New(monitor.Config{Title: "EventSite Metrics"}))
	}

	// SWAGGER / OPENAPI
	if specPath := findFile(constants.OpenAPIFile); specPath == "" {
		log.Warn("OpenAPI document not found, /docs/api/v1 disabled")
	} else if _, err := loadOpenAPI(context.Background(), specPath); err != nil {
		log.WithError(err).Error("OpenAPI document is invalid, /docs/api/v1 disabled")
	} else {
		app.Use(swagger.New(swagger.Config{
			BasePath: constants.DocsBasePath,
			FilePath: specPath,
			Path:     constants.DocsPath,
		}))
	}

	// ROUTER
	router.InstallRouter(app, router.Dependencies{
		Config:         cfg,
		DB:             database.GetDB(),
		Repos:          repository.NewRepositories(database.GetDB()),
		Mailer:         mailer,
		Verifier:       verifier,
		ContactLimiter: newContactLimiter(cfg),
		LimiterStorage: limiterStorage,
		Cache:          cacheClient,
	})

	return app
}

// newContactLimiter picks the limiter backend. Redis is only used when a
// cache host is configured, otherwise the in-process table applies.
func newContactLimiter(cfg config.Config) ratelimit.Limiter {
	if cfg.RateLimitBackend == config.RateLimitBackendRedis {
		if cache.Enabled() {
			return ratelimit.NewRedis(cache.GetClient(), "contact", cfg.RateLimitMax, cfg.RateLimitWindow)
		}
		log.Warn("RATE_LIMIT_BACKEND=redis but CACHE_HOST is empty, falling back to memory")
	}
	return ratelimit.NewMemory(cfg.RateLimitMax, cfg.RateLimitWindow)
}

// findFile looks for a project file from the working directory and from
// cmd/eventsite.
func findFile(rel string) string {
	for _, base := range []string{"./", "../../", "../../../"} {
		if _, err := os.Stat(base + rel); err == nil {
			return base + rel
		}
	}
	return ""
}
