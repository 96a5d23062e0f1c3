package handlers

import (
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/farmhand-id/platform_be/internal/messaging"
)

func getUserUUID(c *fiber.Ctx) (uuid.UUID, error) {
	v := c.Locals("userId")
	if v == nil {
		return uuid.Nil, fmt.Errorf("unauthorized")
	}

	switch t := v.(type) {
	case uuid.UUID:
		return t, nil
	case string:
		return uuid.Parse(t)
	case []byte:
		return uuid.ParseBytes(t)
	default:
		return uuid.Nil, fmt.Errorf("invalid userId type: %T", v)
	}
}

// authUser returns the identity the bearer middleware derived for this
// request.
func authUser(c *fiber.Ctx) (messaging.AuthenticatedUser, error) {
	if u, ok := c.Locals("auth").(messaging.AuthenticatedUser); ok && u.ID != uuid.Nil {
		return u, nil
	}
	uid, err := getUserUUID(c)
	if err != nil {
		return messaging.AuthenticatedUser{}, messaging.ErrUnauthenticated
	}
	sid, _ := c.Locals("sessionId").(string)
	return messaging.AuthenticatedUser{ID: uid, SessionID: sid}, nil
}

// parseID reads an optional uuid field. Empty yields uuid.Nil, anything
// unparsable is a bad request.
func parseID(field, raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, messaging.BadRequest("invalid " + field)
	}
	return id, nil
}

// fail writes err as {"error": ...} with the matching status. Internal
// detail is logged, never sent.
func fail(c *fiber.Ctx, err error) error {
	e := messaging.AsError(err)
	if e.Kind == messaging.KindInternal || e.Kind == messaging.KindForbidden {
		log.Printf("%s %s: %v", c.Method(), c.Path(), e)
	}
	return c.Status(e.Kind.Status()).JSON(fiber.Map{"error": e.Public()})
}
