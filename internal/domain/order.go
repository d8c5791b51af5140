package domain

// OrderStatus enumerates purchase outcomes.
type OrderStatus string

const (
	OrderStatusConfirmed OrderStatus = "Confirmed"
	OrderStatusFailed    OrderStatus = "Failed"
)

// DefaultFailureReason is recorded when a failed order carries no message.
const DefaultFailureReason = "Unknown error"

// Order is one purchase attempt. Reason is nil unless Status is Failed.
type Order struct {
	ID     string      `json:"id"`
	Course string      `json:"course"`
	Status OrderStatus `json:"status"`
	Reason *string     `json:"reason"`
}

// ReasonText returns the failure reason or an empty string.
func (o Order) ReasonText() string {
	if o.Reason == nil {
		return ""
	}
	return *o.Reason
}

func (o Order) clone() Order {
	if o.Reason != nil {
		reason := *o.Reason
		o.Reason = &reason
	}
	return o
}
