package dto

// ChatTurn is one prior conversation message.
type ChatTurn struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content"`
}

// ChatRequest payload for POST /chat.
type ChatRequest struct {
	Prompt  string     `json:"prompt" form:"prompt"`
	History []ChatTurn `json:"history" validate:"dive"`
}
