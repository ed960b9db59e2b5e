package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const adminRealm = "EventSite Admin"

// RequireAdmin guards the admin API with HTTP basic auth. The password is
// checked against a bcrypt hash; with no credentials configured every
// request is refused.
func RequireAdmin(user, passwordHash string) fiber.Handler {
	if user == "" || passwordHash == "" {
		log.Warn("[Admin] ADMIN_USER or ADMIN_PASSWORD_HASH not set, admin API is locked")
	}

	return basicauth.New(basicauth.Config{
		Realm: adminRealm,
		Authorizer: func(u, p string) bool {
			if user == "" || passwordHash == "" {
				return false
			}
			if subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 {
				return false
			}
			return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(p)) == nil
		},
		Unauthorized: func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="`+adminRealm+`"`)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": "login required",
			})
		},
	})
}

// RequireMetricsUser protects /metrics with a plain user and password pair.
// Returns nil when no credentials are configured, the caller then skips the route.
func RequireMetricsUser(user, password string) fiber.Handler {
	if user == "" || password == "" {
		return nil
	}
	return basicauth.New(basicauth.Config{
		Users: map[string]string{user: password},
	})
}
