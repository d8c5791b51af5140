package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/course-assistant/internal/auth"
	"github.com/spec-kit/course-assistant/internal/events"
	"github.com/spec-kit/course-assistant/internal/persistence"
	"github.com/spec-kit/course-assistant/internal/repository"
)

type fixture struct {
	file       *persistence.FlatFile
	users      repository.UserRepository
	sessions   repository.SessionRepository
	dispatcher events.Dispatcher
	auth       *AuthService
	orders     *OrderService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	file := persistence.NewFlatFile(filepath.Join(t.TempDir(), "users.csv"))
	users, err := repository.NewFileUserRepository(file)
	require.NoError(t, err)

	f := &fixture{
		file:       file,
		users:      users,
		sessions:   repository.NewMemorySessionRepository(),
		dispatcher: events.NewInMemoryDispatcher(),
	}
	f.auth = NewAuthService(AuthDependencies{
		UserRepo:    f.users,
		SessionRepo: f.sessions,
		Tokens:      auth.NewTokenManager("test-secret", time.Hour),
		Dispatcher:  f.dispatcher,
	})
	f.orders = NewOrderService(OrderDependencies{
		UserRepo:   f.users,
		Dispatcher: f.dispatcher,
		Catalog:    []string{"Python Basics", "AI for Beginners"},
	})
	return f
}
