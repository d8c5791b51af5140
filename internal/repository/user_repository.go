package repository

import (
	"context"
	"errors"

	"github.com/spec-kit/course-assistant/internal/domain"
)

// ErrNotFound is returned when no record exists for an email.
var ErrNotFound = errors.New("user record not found")

// UserRepository defines durable access to user records keyed by email.
// Implementations serialize writes and hand out copies, so callers may
// mutate returned records freely.
type UserRepository interface {
	Get(ctx context.Context, email string) (*domain.UserRecord, error)
	// GetOrCreate returns the record for email, persisting build() first when
	// none exists. The bool reports whether a record was created.
	GetOrCreate(ctx context.Context, email string, build func() *domain.UserRecord) (*domain.UserRecord, bool, error)
	// Update runs mutate on a copy of the record and persists it. Nothing is
	// changed when mutate or the write fails.
	Update(ctx context.Context, email string, mutate func(*domain.UserRecord) error) (*domain.UserRecord, error)
	List(ctx context.Context) ([]domain.UserRecord, error)
	// Replace swaps the whole record set.
	Replace(ctx context.Context, records []domain.UserRecord) error
}
