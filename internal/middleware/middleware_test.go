package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/farmhand-id/platform_be/internal/messaging"
)

type tokenTable map[string]messaging.AuthenticatedUser

func (t tokenTable) Authenticate(_ context.Context, raw string) (messaging.AuthenticatedUser, error) {
	if u, ok := t[raw]; ok {
		return u, nil
	}
	return messaging.AuthenticatedUser{}, errors.New("unknown token")
}

func newApp(tokens tokenTable) *fiber.App {
	app := fiber.New()
	app.Use(JWTBearer(tokens), AttachJWTLocals(), RequireRoles("farmer", "laborer"))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("userId").(string))
	})
	return app
}

func TestMiddlewareChain(t *testing.T) {
	farmer := messaging.AuthenticatedUser{ID: uuid.New(), SessionID: "s1", ClaimedRole: "Farmer"}
	admin := messaging.AuthenticatedUser{ID: uuid.New(), SessionID: "s2", ClaimedRole: "admin"}
	app := newApp(tokenTable{"farmer-token": farmer, "admin-token": admin})

	cases := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{"no token", "", "", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", "", http.StatusUnauthorized},
		{"bearer", "Bearer farmer-token", "", http.StatusOK},
		{"lowercase scheme", "bearer farmer-token", "", http.StatusOK},
		{"cookie fallback", "", "farmer-token", http.StatusOK},
		{"role outside set", "Bearer admin-token", "", http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		if tc.cookie != "" {
			req.AddCookie(&http.Cookie{Name: TokenCookie, Value: tc.cookie})
		}
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		resp.Body.Close()
		if resp.StatusCode != tc.want {
			t.Errorf("%s: status %d, want %d", tc.name, resp.StatusCode, tc.want)
		}
	}
}
