package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var errNoUser = errors.New("no authenticated user")

// currentUserID extracts the authenticated user from the request context
// set by the auth middleware.
func currentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := c.Locals("userID").(string)
	if !ok || raw == "" {
		return uuid.Nil, errNoUser
	}
	return uuid.Parse(raw)
}

func currentUsername(c *fiber.Ctx) string {
	username, _ := c.Locals("username").(string)
	return username
}
