package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/course-assistant/internal/api/dto"
	"github.com/spec-kit/course-assistant/internal/auth"
	"github.com/spec-kit/course-assistant/internal/domain"
	apperrors "github.com/spec-kit/course-assistant/pkg/util/errorutil"
)

func currentUser(c *fiber.Ctx) (*domain.UserRecord, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthenticated("login required")
	}
	return principal.User, nil
}

// isJSONRequest separates API posts from HTML form submissions, which get
// redirects instead of bodies.
func isJSONRequest(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEApplicationJSON)
}

func userResponse(u *domain.UserRecord) dto.UserResponse {
	orders := make([]dto.OrderResponse, 0, len(u.Orders))
	for _, o := range u.Orders {
		orders = append(orders, orderResponse(o))
	}
	return dto.UserResponse{
		Email:       u.Email,
		Name:        u.Name,
		Preferences: nonNil(u.Preferences),
		Courses:     nonNil(u.Courses),
		Orders:      orders,
	}
}

func orderResponse(o domain.Order) dto.OrderResponse {
	return dto.OrderResponse{
		ID:     o.ID,
		Course: o.Course,
		Status: string(o.Status),
		Reason: o.Reason,
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
