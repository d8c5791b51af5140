package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/course-assistant/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserCreated    EventType = "user_created"
	EventOrderConfirmed EventType = "order_confirmed"
	EventOrderFailed    EventType = "order_failed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Email     string      `json:"email"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, email string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Email:     email,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// UserCreatedPayload payload.
type UserCreatedPayload struct {
	Name string `json:"name"`
}

// OrderSubmittedPayload payload for both order outcomes.
type OrderSubmittedPayload struct {
	OrderID       string             `json:"order_id"`
	Course        string             `json:"course"`
	Status        domain.OrderStatus `json:"status"`
	Reason        string             `json:"reason,omitempty"`
	CourseGranted bool               `json:"course_granted"`
}
