// Package intake implements the guarded form-intake pipeline shared by the
// contact and quote endpoints: honeypot, rate limit, CAPTCHA, required
// fields, then exactly one side effect.
package intake

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/ManuelReschke/EventSite/internal/pkg/ratelimit"
	"github.com/ManuelReschke/EventSite/internal/pkg/turnstile"
)

const defaultDispatchTimeout = 10 * time.Second

// Verifier confirms a CAPTCHA token with the challenge provider.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// Dispatcher performs the side effect for a submission that passed all guards.
type Dispatcher interface {
	Dispatch(ctx context.Context, v Validated) error
}

// DispatchFunc adapts a function to Dispatcher.
type DispatchFunc func(ctx context.Context, v Validated) error

func (f DispatchFunc) Dispatch(ctx context.Context, v Validated) error {
	return f(ctx, v)
}

// Observer is told the outcome of every request: "accepted", "dispatch_failed",
// "invalid_body" or the reason of a rejection.
type Observer interface {
	Observe(ctx context.Context, form, outcome string)
}

// Rejection stops the pipeline before the side effect.
type Rejection struct {
	Status  int
	Message string
	Reason  string
	// Silent rejections answer like a success so bots learn nothing.
	Silent bool
	Err    error
}

func (r *Rejection) Error() string {
	if r.Err != nil {
		return r.Reason + ": " + r.Err.Error()
	}
	return r.Reason
}

func (r *Rejection) Unwrap() error { return r.Err }

type Options struct {
	// Name labels log lines and limiter keys ("contact", "quote").
	Name string
	// Limiter is optional; nil disables the rate limit guard.
	Limiter  ratelimit.Limiter
	Verifier Verifier
	// SkipCaptcha bypasses token presence and verification. Intended for
	// local development of the quote form only.
	SkipCaptcha bool
	// RequireContact enforces non-empty name and email.
	RequireContact  bool
	Dispatcher      Dispatcher
	DispatchTimeout time.Duration
	// ClientIP resolves the caller address; defaults to fiber's c.IP().
	ClientIP func(c *fiber.Ctx) string
	Now      func() time.Time
	// Observer is optional.
	Observer Observer
}

type Pipeline struct {
	opts Options
}

func New(opts Options) *Pipeline {
	if opts.DispatchTimeout <= 0 {
		opts.DispatchTimeout = defaultDispatchTimeout
	}
	if opts.ClientIP == nil {
		opts.ClientIP = func(c *fiber.Ctx) string { return c.IP() }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SkipCaptcha {
		log.WithField("form", opts.Name).Warn("CAPTCHA verification is DISABLED for this form, never run like this in production")
	}
	return &Pipeline{opts: opts}
}

// Handle is the fiber handler. Register it with app.All so other methods
// reach the 405 branch.
func (p *Pipeline) Handle(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		c.Set(fiber.HeaderAllow, fiber.MethodPost)
		return respondError(c, fiber.StatusMethodNotAllowed, MsgMethodNotAllowed)
	}

	addr := p.opts.ClientIP(c)
	logger := log.WithFields(log.Fields{"form": p.opts.Name, "remote_addr": addr})

	var sub Submission
	if err := c.App().Config().JSONDecoder(c.Body(), &sub); err != nil {
		logger.WithError(err).Info("rejected submission with invalid body")
		p.observe(c.UserContext(), "invalid_body")
		return respondError(c, fiber.StatusBadRequest, MsgInvalidBody)
	}

	if rej := p.Guard(c.UserContext(), sub, addr); rej != nil {
		p.observe(c.UserContext(), rej.Reason)
		entry := logger.WithField("reason", rej.Reason)
		if rej.Err != nil {
			entry = entry.WithError(rej.Err)
		}
		if rej.Silent {
			entry.Warn("honeypot triggered, dropping submission")
			return respondOK(c)
		}
		entry.Info("submission rejected")
		return respondError(c, rej.Status, rej.Message)
	}

	validated := Validated{
		Submission: sub.Normalized(),
		RemoteAddr: addr,
		UserAgent:  c.Get(fiber.HeaderUserAgent),
		ReceivedAt: p.opts.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), p.opts.DispatchTimeout)
	defer cancel()

	if err := p.opts.Dispatcher.Dispatch(ctx, validated); err != nil {
		entry := logger.WithError(err)
		if errors.Is(err, context.DeadlineExceeded) {
			entry = entry.WithField("timeout", p.opts.DispatchTimeout.String())
		}
		entry.Error("submission side effect failed")
		p.observe(c.UserContext(), "dispatch_failed")
		return respondError(c, fiber.StatusInternalServerError, MsgInternalError)
	}

	logger.Info("submission accepted")
	p.observe(c.UserContext(), "accepted")
	return respondOK(c)
}

func (p *Pipeline) observe(ctx context.Context, outcome string) {
	if p.opts.Observer != nil {
		p.opts.Observer.Observe(ctx, p.opts.Name, outcome)
	}
}

// Guard runs the checks in their fixed order and returns the first
// rejection, or nil when the submission may be dispatched.
func (p *Pipeline) Guard(ctx context.Context, sub Submission, addr string) *Rejection {
	if sub.IsBot() {
		return &Rejection{Status: fiber.StatusOK, Reason: "honeypot", Silent: true}
	}
	n := sub.Normalized()

	if p.opts.Limiter != nil && !p.opts.Limiter.Allow(ctx, addr) {
		return &Rejection{Status: fiber.StatusTooManyRequests, Message: MsgRateLimited, Reason: "rate_limited"}
	}

	if p.opts.SkipCaptcha {
		log.WithField("form", p.opts.Name).Warn("CAPTCHA verification skipped by configuration")
	} else {
		token := n.TurnstileToken
		if token == "" {
			return &Rejection{Status: fiber.StatusBadRequest, Message: MsgCaptchaRequired, Reason: "captcha_missing"}
		}
		if p.opts.Verifier == nil {
			return &Rejection{Status: fiber.StatusBadRequest, Message: MsgCaptchaFailed, Reason: "captcha_unconfigured", Err: turnstile.ErrMissingSecret}
		}
		if err := p.opts.Verifier.Verify(ctx, token, addr); err != nil {
			if errors.Is(err, turnstile.ErrMissingSecret) {
				log.WithField("form", p.opts.Name).Error("TURNSTILE_SECRET is not set, rejecting every submission")
			}
			return &Rejection{Status: fiber.StatusBadRequest, Message: MsgCaptchaFailed, Reason: "captcha_failed", Err: err}
		}
	}

	if p.opts.RequireContact {
		if n.Name == "" {
			return &Rejection{Status: fiber.StatusBadRequest, Message: MsgNameRequired, Reason: "missing_name"}
		}
		if n.Email == "" {
			return &Rejection{Status: fiber.StatusBadRequest, Message: MsgEmailRequired, Reason: "missing_email"}
		}
	}

	return nil
}
