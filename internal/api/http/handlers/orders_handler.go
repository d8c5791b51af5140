package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/spec-kit/course-assistant/internal/api/dto"
	"github.com/spec-kit/course-assistant/internal/service"
	apperrors "github.com/spec-kit/course-assistant/pkg/util/errorutil"
)

// OrdersHandler manages the simulated course checkout.
type OrdersHandler struct {
	service *service.OrderService
}

// NewOrdersHandler constructs handler.
func NewOrdersHandler(orderService *service.OrderService) *OrdersHandler {
	return &OrdersHandler{service: orderService}
}

// OrderPage GET /order.
func (h *OrdersHandler) OrderPage(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.OrderPageResponse{
		User:    userResponse(user),
		Courses: h.service.Catalog(),
	}})
}

// SubmitOrder POST /order.
func (h *OrdersHandler) SubmitOrder(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.OrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	updated, order, err := h.service.SubmitOrder(c.UserContext(), user.Email, service.SubmitOrderInput{
		Course:          utils.CopyString(req.Course),
		SimulateSuccess: req.SimulateSuccess.Bool(),
		ErrorMessage:    utils.CopyString(req.Error),
	})
	if err != nil {
		return err
	}

	if !isJSONRequest(c) {
		return c.Redirect(DashboardPath, fiber.StatusFound)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"order": orderResponse(*order),
		"user":  userResponse(updated),
	}})
}
