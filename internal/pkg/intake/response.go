package intake

import (
	"github.com/gofiber/fiber/v2"
)

const (
	MsgInvalidBody      = "Invalid request body."
	MsgMethodNotAllowed = "Method not allowed."
	MsgRateLimited      = "Too many requests. Please try again later."
	MsgCaptchaRequired  = "CAPTCHA verification required"
	MsgCaptchaFailed    = "CAPTCHA verification failed"
	MsgNameRequired     = "Name is required."
	MsgEmailRequired    = "Email is required."
	MsgInternalError    = "Internal server error. Please try again or email us directly."
)

// Response is the body of every intake reply.
type Response struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func respondOK(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(Response{OK: true})
}

func respondError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(Response{OK: false, Error: message})
}
