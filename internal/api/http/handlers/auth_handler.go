package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/spec-kit/course-assistant/internal/api/dto"
	"github.com/spec-kit/course-assistant/internal/auth"
	"github.com/spec-kit/course-assistant/internal/service"
	apperrors "github.com/spec-kit/course-assistant/pkg/util/errorutil"
)

// DashboardPath is where a successful login lands.
const DashboardPath = "/dashboard"

// AuthHandler exposes the login and logout endpoints.
type AuthHandler struct {
	auth         *service.AuthService
	sessions     *auth.AuthMiddleware
	secureCookie bool
}

// NewAuthHandler constructs handler. sessions is used to read and name the
// session cookie.
func NewAuthHandler(authService *service.AuthService, sessions *auth.AuthMiddleware, secureCookie bool) *AuthHandler {
	return &AuthHandler{auth: authService, sessions: sessions, secureCookie: secureCookie}
}

// LoginPage handles GET /login.
func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": fiber.Map{
		"action": auth.LoginPath,
		"fields": []string{"email"},
	}})
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	result, err := h.auth.Login(c.UserContext(), utils.CopyString(req.Email))
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     h.sessions.CookieName(),
		Value:    result.Token,
		Path:     "/",
		Expires:  result.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	if !isJSONRequest(c) {
		return c.Redirect(DashboardPath, fiber.StatusFound)
	}
	status := fiber.StatusOK
	if result.Created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{
		"data": fiber.Map{
			"user": userResponse(result.User),
			"auth": dto.AuthResponse{Token: result.Token, ExpiresAt: result.ExpiresAt},
		},
	})
}

// Logout handles GET /logout. It always succeeds, whatever state the
// session is in.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.auth.Logout(c.UserContext(), h.sessions.Token(c)); err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     h.sessions.CookieName(),
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	if auth.WantsHTML(c) {
		return c.Redirect(auth.LoginPath, fiber.StatusFound)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"logged_out": true}})
}
