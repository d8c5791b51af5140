package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/course-assistant/internal/domain"
)

const principalKey = "auth_principal"

// LoginPath is where unauthenticated browsers are sent.
const LoginPath = "/login"

// Principal represents the authenticated caller. User is fetched fresh from
// the record store for every request.
type Principal struct {
	Token string
	User  *domain.UserRecord
}

// SessionResolver turns a session token into the current user record.
type SessionResolver interface {
	RequireSession(ctx context.Context, token string) (*domain.UserRecord, error)
}

// AuthMiddleware validates the session cookie and loads the principal.
type AuthMiddleware struct {
	resolver   SessionResolver
	cookieName string
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(resolver SessionResolver, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver, cookieName: cookieName}
}

// Handle enforces a session on protected routes. Browsers are redirected to
// the login page; API callers get the error.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token := m.Token(c)
	user, err := m.resolver.RequireSession(c.UserContext(), token)
	if err != nil {
		if WantsHTML(c) {
			return c.Redirect(LoginPath, fiber.StatusFound)
		}
		return err
	}

	c.Locals(principalKey, &Principal{Token: token, User: user})
	return c.Next()
}

// Token extracts the session token from the cookie, falling back to a bearer
// header for API clients.
func (m *AuthMiddleware) Token(c *fiber.Ctx) string {
	if token := c.Cookies(m.cookieName); token != "" {
		return token
	}
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// CookieName returns the session cookie name.
func (m *AuthMiddleware) CookieName() string {
	return m.cookieName
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// WantsHTML reports whether the caller is a browser navigating pages.
func WantsHTML(c *fiber.Ctx) bool {
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMETextHTML)
}
