package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// UsersHandler serves the signed-in user's own record.
type UsersHandler struct{}

// NewUsersHandler constructs handler.
func NewUsersHandler() *UsersHandler {
	return &UsersHandler{}
}

// Dashboard handles GET /dashboard.
func (h *UsersHandler) Dashboard(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}
