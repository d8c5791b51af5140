package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/course-assistant/internal/domain"
	"github.com/spec-kit/course-assistant/internal/persistence"
)

type postgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository returns a Postgres-backed implementation. Writes
// to one email are serialized with row locks.
func NewPostgresUserRepository(pool *pgxpool.Pool) UserRepository {
	return &postgresUserRepository{pool: pool}
}

const selectRecordColumns = `SELECT email, name, preferences, orders, courses FROM user_records`

func (r *postgresUserRepository) Get(ctx context.Context, email string) (*domain.UserRecord, error) {
	return scanRecord(r.pool.QueryRow(ctx, selectRecordColumns+` WHERE email=$1`, email))
}

func (r *postgresUserRepository) GetOrCreate(ctx context.Context, email string, build func() *domain.UserRecord) (*domain.UserRecord, bool, error) {
	rec, err := r.Get(ctx, email)
	if err == nil {
		return rec, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	rec = build()
	rec.Email = email
	orders, err := encodeOrders(rec.Orders)
	if err != nil {
		return nil, false, err
	}

	const query = `
        INSERT INTO user_records (email, name, preferences, orders, courses)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (email) DO NOTHING`

	cmd, err := r.pool.Exec(ctx, query, rec.Email, rec.Name, nonNil(rec.Preferences), orders, nonNil(rec.Courses))
	if err != nil {
		return nil, false, fmt.Errorf("insert record: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		// lost a race with a concurrent login
		existing, err := r.Get(ctx, email)
		return existing, false, err
	}
	return rec, true, nil
}

func (r *postgresUserRepository) Update(ctx context.Context, email string, mutate func(*domain.UserRecord) error) (*domain.UserRecord, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	rec, err := scanRecord(tx.QueryRow(ctx, selectRecordColumns+` WHERE email=$1 FOR UPDATE`, email))
	if err != nil {
		return nil, err
	}
	if err := mutate(rec); err != nil {
		return nil, err
	}
	rec.Email = email

	orders, err := encodeOrders(rec.Orders)
	if err != nil {
		return nil, err
	}

	const query = `
        UPDATE user_records SET name=$1, preferences=$2, orders=$3, courses=$4, updated_at=NOW()
        WHERE email=$5`

	if _, err := tx.Exec(ctx, query, rec.Name, nonNil(rec.Preferences), orders, nonNil(rec.Courses), email); err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *postgresUserRepository) List(ctx context.Context) ([]domain.UserRecord, error) {
	rows, err := r.pool.Query(ctx, selectRecordColumns+` ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.UserRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *postgresUserRepository) Replace(ctx context.Context, records []domain.UserRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM user_records`); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}

	const query = `
        INSERT INTO user_records (email, name, preferences, orders, courses)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (email) DO UPDATE SET name=EXCLUDED.name, preferences=EXCLUDED.preferences,
            orders=EXCLUDED.orders, courses=EXCLUDED.courses, updated_at=NOW()`

	batch := &pgx.Batch{}
	for i := range records {
		rec := &records[i]
		orders, err := encodeOrders(rec.Orders)
		if err != nil {
			return err
		}
		batch.Queue(query, rec.Email, rec.Name, nonNil(rec.Preferences), orders, nonNil(rec.Courses))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert records: %w", err)
	}
	return tx.Commit(ctx)
}

func scanRecord(row pgx.Row) (*domain.UserRecord, error) {
	var (
		rec    domain.UserRecord
		orders []byte
	)
	if err := row.Scan(&rec.Email, &rec.Name, &rec.Preferences, &orders, &rec.Courses); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(orders, &rec.Orders); err != nil {
		return nil, fmt.Errorf("%w: orders of %s: %v", persistence.ErrCorrupt, rec.Email, err)
	}
	if rec.Orders == nil {
		rec.Orders = []domain.Order{}
	}
	rec.Preferences = nonNil(rec.Preferences)
	rec.Courses = nonNil(rec.Courses)
	return &rec, nil
}

func encodeOrders(orders []domain.Order) ([]byte, error) {
	if orders == nil {
		orders = []domain.Order{}
	}
	raw, err := json.Marshal(orders)
	if err != nil {
		return nil, fmt.Errorf("encode orders: %w", err)
	}
	return raw, nil
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
