package service

import (
	"context"
	"errors"

	"github.com/spec-kit/course-assistant/internal/chat"
	"github.com/spec-kit/course-assistant/internal/domain"
	apperrors "github.com/spec-kit/course-assistant/pkg/util/errorutil"
)

// ChatBackend opens a streamed completion upstream.
type ChatBackend interface {
	Open(ctx context.Context, messages []chat.Message) (*chat.Stream, error)
}

// ChatService augments prompts with the user's record and relays them to the
// chat backend.
type ChatService struct {
	backend ChatBackend
}

// NewChatService constructs the service.
func NewChatService(backend ChatBackend) *ChatService {
	return &ChatService{backend: backend}
}

// StartChat validates the history and opens the upstream stream. user is the
// record loaded for this request; it is not reloaded while streaming. The
// stream outlives ctx only if ctx does, so callers that stream after their
// handler returns must pass a detached context.
func (s *ChatService) StartChat(ctx context.Context, user *domain.UserRecord, prompt string, history []chat.Message) (*chat.Stream, error) {
	for i, turn := range history {
		switch turn.Role {
		case chat.RoleSystem, chat.RoleUser, chat.RoleAssistant:
		default:
			return nil, apperrors.NewValidationError("malformed history", map[string]any{
				"index": i,
				"role":  turn.Role,
			})
		}
	}

	stream, err := s.backend.Open(ctx, chat.BuildMessages(user, history, prompt))
	if err != nil {
		if errors.Is(err, chat.ErrUpstream) {
			return nil, apperrors.NewUpstreamUnavailable(err)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return stream, nil
}
