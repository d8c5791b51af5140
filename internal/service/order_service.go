package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/course-assistant/internal/domain"
	"github.com/spec-kit/course-assistant/internal/events"
	"github.com/spec-kit/course-assistant/internal/repository"
	apperrors "github.com/spec-kit/course-assistant/pkg/util/errorutil"
)

const orderIDLength = 8

// OrderService records simulated purchase outcomes.
type OrderService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	catalog    []string
	logger     *zap.Logger
	newID      func() string
}

// OrderDependencies bundles collaborators for the order service.
type OrderDependencies struct {
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Catalog    []string
	Logger     *zap.Logger
}

// NewOrderService constructs the service.
func NewOrderService(deps OrderDependencies) *OrderService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		catalog:    append([]string(nil), deps.Catalog...),
		logger:     logger,
		newID:      newOrderID,
	}
}

// SubmitOrderInput describes one simulated purchase.
type SubmitOrderInput struct {
	Course          string
	SimulateSuccess bool
	ErrorMessage    string
}

// Catalog lists the courses offered on the order page.
func (s *OrderService) Catalog() []string {
	return append([]string(nil), s.catalog...)
}

// SubmitOrder appends an order to the user's record. A confirmed order grants
// the course; a failed one records the reason and leaves courses untouched.
// The record is persisted before the updated copy is returned.
func (s *OrderService) SubmitOrder(ctx context.Context, email string, input SubmitOrderInput) (*domain.UserRecord, *domain.Order, error) {
	course := strings.TrimSpace(input.Course)
	if course == "" {
		return nil, nil, apperrors.NewBadRequest("course required")
	}

	order := domain.Order{ID: s.newID(), Course: course, Status: domain.OrderStatusConfirmed}
	if !input.SimulateSuccess {
		reason := input.ErrorMessage
		if reason == "" {
			reason = domain.DefaultFailureReason
		}
		order.Status = domain.OrderStatusFailed
		order.Reason = &reason
	}

	granted := false
	user, err := s.users.Update(ctx, email, func(u *domain.UserRecord) error {
		u.Orders = append(u.Orders, order)
		if order.Status == domain.OrderStatusConfirmed && !u.HasCourse(course) {
			u.GrantCourse(course)
			granted = true
		}
		return nil
	})
	if err != nil {
		return nil, nil, mapStoreError(err)
	}

	s.publish(ctx, email, order, granted)
	return user, &order, nil
}

func (s *OrderService) publish(ctx context.Context, email string, order domain.Order, granted bool) {
	if s.dispatcher == nil {
		return
	}
	eventType := events.EventOrderConfirmed
	if order.Status == domain.OrderStatusFailed {
		eventType = events.EventOrderFailed
	}
	payload := events.OrderSubmittedPayload{
		OrderID:       order.ID,
		Course:        order.Course,
		Status:        order.Status,
		Reason:        order.ReasonText(),
		CourseGranted: granted,
	}
	if err := s.dispatcher.Publish(ctx, events.New(eventType, email, payload)); err != nil {
		s.logger.Warn("order event handlers failed", zap.String("order_id", order.ID), zap.Error(err))
	}
}

func newOrderID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:orderIDLength]
}
