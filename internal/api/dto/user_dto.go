package dto

import "time"

// LoginRequest payload for the email-only login.
type LoginRequest struct {
	Email string `json:"email" form:"email" validate:"notblank,max=320"`
}

// AuthResponse describes the issued session.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the dashboard view of a user record.
type UserResponse struct {
	Email       string          `json:"email"`
	Name        string          `json:"name"`
	Preferences []string        `json:"preferences"`
	Courses     []string        `json:"courses"`
	Orders      []OrderResponse `json:"orders"`
}
