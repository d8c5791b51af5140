package repository

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/course-assistant/internal/domain"
	"github.com/spec-kit/course-assistant/internal/persistence"
)

// newPostgresRepo connects to POSTGRES_DSN and empties user_records. Point it
// at a throwaway database.
func newPostgresRepo(t *testing.T) UserRepository {
	t.Helper()
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, persistence.RunMigrations(ctx, pool, "../../migrations", zap.NewNop()))
	_, err = pool.Exec(ctx, `DELETE FROM user_records`)
	require.NoError(t, err)
	return NewPostgresUserRepository(pool)
}

func TestPostgresUserRepositoryGetOrCreate(t *testing.T) {
	repo := newPostgresRepo(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, "ana@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	build := func() *domain.UserRecord { return domain.NewUserRecord("ana@example.com", "ana") }
	rec, created, err := repo.GetOrCreate(ctx, "ana@example.com", build)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, domain.DefaultPreferences, rec.Preferences)

	rec, created, err = repo.GetOrCreate(ctx, "ana@example.com", build)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "ana", rec.Name)
}

func TestPostgresUserRepositoryUpdateSerializesWriters(t *testing.T) {
	repo := newPostgresRepo(t)
	ctx := context.Background()
	_, _, err := repo.GetOrCreate(ctx, "ana@example.com", func() *domain.UserRecord {
		return domain.NewUserRecord("ana@example.com", "ana")
	})
	require.NoError(t, err)

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Update(ctx, "ana@example.com", func(u *domain.UserRecord) error {
				reason := "declined"
				u.Orders = append(u.Orders, domain.Order{
					ID: fmt.Sprintf("o%d", i), Course: "Go", Status: domain.OrderStatusFailed, Reason: &reason,
				})
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	rec, err := repo.Get(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Len(t, rec.Orders, writers)
	assert.Equal(t, "declined", rec.Orders[0].ReasonText())

	_, err = repo.Update(ctx, "nobody@example.com", func(*domain.UserRecord) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresUserRepositoryReplaceKeepsOrder(t *testing.T) {
	repo := newPostgresRepo(t)
	ctx := context.Background()
	_, _, err := repo.GetOrCreate(ctx, "old@example.com", func() *domain.UserRecord {
		return domain.NewUserRecord("old@example.com", "old")
	})
	require.NoError(t, err)

	records := []domain.UserRecord{
		{Email: "zed@example.com", Name: "Zed", Preferences: []string{"AI"}, Courses: []string{"Go, the language"}},
		{Email: "ana@example.com", Name: "Ana"},
	}
	require.NoError(t, repo.Replace(ctx, records))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "zed@example.com", list[0].Email)
	assert.Equal(t, []string{"Go, the language"}, list[0].Courses)
	assert.Equal(t, "ana@example.com", list[1].Email)
}
