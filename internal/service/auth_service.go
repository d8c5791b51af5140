package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/course-assistant/internal/auth"
	"github.com/spec-kit/course-assistant/internal/domain"
	"github.com/spec-kit/course-assistant/internal/events"
	"github.com/spec-kit/course-assistant/internal/repository"
	apperrors "github.com/spec-kit/course-assistant/pkg/util/errorutil"
)

// AuthService implements the email-only login: no password, no verification.
type AuthService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	now        func() time.Time
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo    repository.UserRepository
	SessionRepo repository.SessionRepository
	Tokens      *auth.TokenManager
	Dispatcher  events.Dispatcher
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		sessions:   deps.SessionRepo,
		tokenMgr:   deps.Tokens,
		dispatcher: deps.Dispatcher,
		now:        time.Now,
	}
}

// LoginResult is what a successful login hands back to the transport.
type LoginResult struct {
	User      *domain.UserRecord
	Token     string
	ExpiresAt time.Time
	Created   bool
}

// Login fetches or creates the record for email and opens a session for it.
func (s *AuthService) Login(ctx context.Context, email string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperrors.NewBadRequest("email required")
	}

	user, created, err := s.users.GetOrCreate(ctx, email, func() *domain.UserRecord {
		return domain.NewUserRecord(email, defaultName(email))
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	if created && s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.New(events.EventUserCreated, email, events.UserCreatedPayload{Name: user.Name}))
	}

	now := s.now()
	session := domain.Session{
		ID:        uuid.NewString(),
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokenMgr.TTL()),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	token, exp, err := s.tokenMgr.GenerateToken(session.ID, now)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{User: user, Token: token, ExpiresAt: exp, Created: created}, nil
}

// RequireSession resolves a session token to the current user record.
func (s *AuthService) RequireSession(ctx context.Context, token string) (*domain.UserRecord, error) {
	if token == "" {
		return nil, apperrors.NewUnauthenticated("login required")
	}
	claims, err := s.tokenMgr.ParseToken(token)
	if err != nil {
		return nil, apperrors.NewUnauthenticated("invalid session")
	}

	session, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, apperrors.NewUnauthenticated("session expired")
		}
		return nil, apperrors.NewInternalError(err)
	}
	if session.Expired(s.now()) {
		_ = s.sessions.Delete(ctx, session.ID)
		return nil, apperrors.NewUnauthenticated("session expired")
	}

	user, err := s.users.Get(ctx, session.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthenticated("user not found")
		}
		return nil, mapStoreError(err)
	}
	return user, nil
}

// Logout ends the session. Unknown, expired and malformed tokens are
// accepted so the call is idempotent.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.tokenMgr.ParseExpiredToken(token)
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, claims.SessionID); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// TokenManager exposes the underlying token manager.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func defaultName(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}
