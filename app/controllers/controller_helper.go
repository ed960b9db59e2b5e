package controllers

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	log "github.com/sirupsen/logrus"

	"github.com/ManuelReschke/EventSite/internal/pkg/constants"
	"github.com/ManuelReschke/EventSite/internal/pkg/intake"
	"github.com/ManuelReschke/EventSite/internal/pkg/ratelimit"
)

// IntakeOptions carries the collaborators both form pipelines share.
type IntakeOptions struct {
	Limiter         ratelimit.Limiter
	Verifier        intake.Verifier
	DispatchTimeout time.Duration
	Observer        intake.Observer
}

// ClientAddress determines the caller address considering Cloudflare and
// proxies. Forwarding headers only count when the socket peer is one of the
// app's TrustedProxies; then the first parseable candidate wins:
// CF-Connecting-IP, the first X-Forwarded-For entry, X-Real-IP. Everyone
// else is identified by the socket address.
func ClientAddress(c *fiber.Ctx) string {
	var candidates []string
	if behindTrustedProxy(c) {
		candidates = append(candidates, c.Get("CF-Connecting-IP"))
		if xff := c.Get(fiber.HeaderXForwardedFor); xff != "" {
			candidates = append(candidates, strings.Split(xff, ",")[0])
		}
		candidates = append(candidates, c.Get("X-Real-IP"))
	}
	candidates = append(candidates, c.IP())

	for _, candidate := range candidates {
		ip := strings.TrimSpace(candidate)
		if net.ParseIP(ip) == nil {
			continue
		}
		// ::ffff:192.168.1.1 is an IPv4 client on a dual stack socket
		if strings.HasPrefix(ip, "::ffff:") && strings.Contains(ip, ".") {
			return strings.TrimPrefix(ip, "::ffff:")
		}
		return ip
	}
	return c.IP()
}

// behindTrustedProxy is false unless the app enables the trusted proxy check
// and the peer is listed.
func behindTrustedProxy(c *fiber.Ctx) bool {
	return c.App().Config().EnableTrustedProxyCheck && c.IsProxyTrusted()
}

func apiError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": code, "message": message})
}

func parseID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func isIntakePath(path string) bool {
	return path == constants.ContactRoute || path == constants.QuoteRoute
}

// ErrorHandler renders every unhandled error as JSON. Intake routes keep
// their {ok, error} shape; server errors never expose details.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := intake.MsgInternalError

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		if code < fiber.StatusInternalServerError {
			message = fe.Message
		}
	}

	if code >= fiber.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{"path": c.Path(), "method": c.Method()}).Error("unhandled request error")
	}

	if isIntakePath(c.Path()) {
		return c.Status(code).JSON(intake.Response{OK: false, Error: message})
	}
	errCode := strings.ToLower(strings.ReplaceAll(utils.StatusMessage(code), " ", "_"))
	return apiError(c, code, errCode, message)
}
