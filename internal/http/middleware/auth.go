package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// AdminTokenHeader carries the administrator shared secret.
const AdminTokenHeader = "X-Admin-Token"

// AdminAuth guards administrator-only routes (delete, download). The token is
// checked server-side; presenting the UI unlock prompt alone grants nothing.
// An empty configured token disables admin routes entirely.
func AdminAuth(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token == "" || subtle.ConstantTimeCompare([]byte(c.Get(AdminTokenHeader)), []byte(token)) != 1 {
			return fiber.NewError(fiber.StatusUnauthorized, "admin token required")
		}
		return c.Next()
	}
}

// BearerAuth guards service endpoints (the cleanup trigger) with an
// Authorization: Bearer token. An empty configured token disables the routes.
func BearerAuth(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		got := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			return fiber.NewError(fiber.StatusUnauthorized, "service token required")
		}
		return c.Next()
	}
}
