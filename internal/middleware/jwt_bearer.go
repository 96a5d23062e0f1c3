package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/farmhand-id/platform_be/internal/messaging"
)

// TokenCookie is the cookie set at login for browser clients.
const TokenCookie = "fh_token"

// Authenticator is satisfied by *messaging.Gate.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (messaging.AuthenticatedUser, error)
}

// BearerToken extracts the session token from the Authorization header,
// falling back to the login cookie.
func BearerToken(c *fiber.Ctx) string {
	h := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return c.Cookies(TokenCookie)
}

func JWTBearer(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := BearerToken(c)
		if tokenStr == "" {
			return unauthorized(c)
		}

		user, err := auth.Authenticate(c.UserContext(), tokenStr)
		if err != nil {
			return unauthorized(c)
		}

		c.Locals("auth", user)
		c.Locals("token", tokenStr)
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": messaging.ErrUnauthenticated.Public(),
	})
}
