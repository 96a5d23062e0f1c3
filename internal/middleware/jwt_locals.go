package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/farmhand-id/platform_be/internal/messaging"
)

// AttachJWTLocals copies the authenticated identity into the plain locals
// handlers read (userId, sessionId, role).
func AttachJWTLocals() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals("auth").(messaging.AuthenticatedUser)
		if !ok {
			return unauthorized(c)
		}

		c.Locals("userId", user.ID.String())
		c.Locals("sessionId", user.SessionID)
		c.Locals("role", strings.ToLower(strings.TrimSpace(user.ClaimedRole)))

		return c.Next()
	}
}
