package config

import (
	"time"

	"github.com/ManuelReschke/EventSite/internal/pkg/env"
	"github.com/ManuelReschke/EventSite/internal/pkg/mail"
	"github.com/ManuelReschke/EventSite/internal/pkg/turnstile"
)

const (
	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

type Config struct {
	Host string
	Port string
	Env  string

	Turnstile turnstile.Config
	// QuoteCaptchaSkip disables token checks on the quote form. Only honoured
	// outside of prod, see EffectiveQuoteCaptchaSkip.
	QuoteCaptchaSkip bool

	SMTP mail.Config

	RateLimitMax     int
	RateLimitWindow  time.Duration
	RateLimitBackend string

	// CMSRateLimitMax caps public CMS reads per address per minute.
	CMSRateLimitMax int

	// TrustedProxies are the peers (IPs or CIDRs) whose forwarding headers
	// name the client. Empty means the socket address is the client.
	TrustedProxies []string

	DispatchTimeout time.Duration

	AdminUser         string
	AdminPasswordHash string
	MetricsUser       string
	MetricsPassword   string
}

func Load() Config {
	return Config{
		Host: env.GetEnv("APP_HOST", "localhost"),
		Port: env.GetEnv("APP_PORT", "4000"),
		Env:  env.GetEnv("APP_ENV", "prod"),

		Turnstile: turnstile.Config{
			Secret:    env.GetEnv("TURNSTILE_SECRET", ""),
			VerifyURL: env.GetEnv("TURNSTILE_VERIFY_URL", turnstile.DefaultVerifyURL),
			Timeout:   env.GetDuration("TURNSTILE_TIMEOUT", 5*time.Second),
		},
		QuoteCaptchaSkip: env.GetBool("QUOTE_CAPTCHA_SKIP", false),

		SMTP: mail.Config{
			Host:     env.GetEnv("SMTP_HOST", ""),
			Port:     env.GetEnv("SMTP_PORT", ""),
			Username: env.GetEnv("SMTP_USERNAME", ""),
			Password: env.GetEnv("SMTP_PASSWORD", ""),
			To:       env.GetEnv("SMTP_TO", ""),
			From:     env.GetEnv("SMTP_SENDER", ""),
			Timeout:  env.GetDuration("SMTP_TIMEOUT", 10*time.Second),

			MaxPerMinute: env.GetInt("SMTP_MAX_PER_MINUTE", 30),
		},

		RateLimitMax:     env.GetInt("RATE_LIMIT_MAX", 5),
		RateLimitWindow:  env.GetDuration("RATE_LIMIT_WINDOW", 10*time.Minute),
		RateLimitBackend: env.GetEnv("RATE_LIMIT_BACKEND", RateLimitBackendMemory),

		CMSRateLimitMax: env.GetInt("CMS_RATE_LIMIT_MAX", 60),
		TrustedProxies:  env.GetList("TRUSTED_PROXIES"),

		DispatchTimeout: env.GetDuration("INTAKE_DISPATCH_TIMEOUT", 10*time.Second),

		AdminUser:         env.GetEnv("ADMIN_USER", "admin"),
		AdminPasswordHash: env.GetEnv("ADMIN_PASSWORD_HASH", ""),
		MetricsUser:       env.GetEnv("METRICS_USER", "admin"),
		MetricsPassword:   env.GetEnv("METRICS_PASSWORD", ""),
	}
}

// EffectiveQuoteCaptchaSkip reports whether the quote pipeline may run without
// CAPTCHA verification. A skip requested in prod is refused.
func (c Config) EffectiveQuoteCaptchaSkip() bool {
	return c.QuoteCaptchaSkip && c.Env != "prod"
}
