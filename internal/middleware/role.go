package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/farmhand-id/platform_be/internal/messaging"
)

// RequireRoles rejects tokens issued for a role outside allowed. It reads
// the role recorded in the token, so it is a coarse filter only; anything
// that depends on the current role must re-read it from the store.
func RequireRoles(allowed ...string) fiber.Handler {
	allowedSet := map[string]bool{}
	for _, r := range allowed {
		allowedSet[strings.ToLower(r)] = true
	}

	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("role").(string)
		if role == "" {
			return unauthorized(c)
		}
		if !allowedSet[role] {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": messaging.ErrForbidden.Public(),
			})
		}

		return c.Next()
	}
}
