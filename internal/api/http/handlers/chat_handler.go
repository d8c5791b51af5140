package handlers

import (
	"bufio"
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/course-assistant/internal/api/dto"
	"github.com/spec-kit/course-assistant/internal/chat"
	"github.com/spec-kit/course-assistant/internal/observability"
	"github.com/spec-kit/course-assistant/internal/service"
	apperrors "github.com/spec-kit/course-assistant/pkg/util/errorutil"
)

// ChatHandler relays prompts to the chat backend and streams the reply.
type ChatHandler struct {
	service *service.ChatService
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewChatHandler constructs handler.
func NewChatHandler(chatService *service.ChatService, logger *zap.Logger, metrics *observability.Metrics) *ChatHandler {
	return &ChatHandler{service: chatService, logger: logger, metrics: metrics}
}

// ChatPage GET /chat.
func (h *ChatHandler) ChatPage(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"user": userResponse(user)}})
}

// Chat POST /chat. Failures before the first upstream byte are reported as
// JSON errors. After that the reply is streamed as-is and a broken upstream
// just ends the response.
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("malformed history")
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	history := make([]chat.Message, 0, len(req.History))
	for _, turn := range req.History {
		history = append(history, chat.Message{Role: turn.Role, Content: turn.Content})
	}

	// The body is written after this handler returns, past the request
	// timeout, so the upstream call cannot hang off the request context.
	streamCtx, cancel := context.WithCancel(context.Background())
	stream, err := h.service.StartChat(streamCtx, user, req.Prompt, history)
	if err != nil {
		cancel()
		return err
	}

	c.Set(fiber.HeaderContentType, stream.ContentType())
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set("X-Accel-Buffering", "no")

	logger := h.logger.With(zap.String("email", user.Email))
	metrics := h.metrics
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer stream.Close()

		n, err := stream.WriteTo(w, w.Flush)
		metrics.RecordStreamedBytes(n)
		switch {
		case err == nil:
			logger.Debug("chat stream finished", zap.Int64("bytes", n))
		case errors.Is(err, chat.ErrClientGone):
			logger.Info("chat client disconnected", zap.Int64("bytes", n), zap.Error(err))
		default:
			logger.Warn("chat upstream ended with error", zap.Int64("bytes", n), zap.Error(err))
		}
	})
	return nil
}
