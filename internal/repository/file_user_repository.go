package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/spec-kit/course-assistant/internal/domain"
	"github.com/spec-kit/course-assistant/internal/persistence"
)

type fileUserRepository struct {
	mu      sync.RWMutex
	file    *persistence.FlatFile
	records map[string]*domain.UserRecord
	order   []string
}

// NewFileUserRepository loads the flat file into memory and returns a
// repository that rewrites the whole file on every change. A single lock
// serializes writers.
func NewFileUserRepository(file *persistence.FlatFile) (UserRepository, error) {
	records, err := file.Load()
	if err != nil {
		return nil, err
	}
	r := &fileUserRepository{file: file}
	r.reset(records)
	return r, nil
}

func (r *fileUserRepository) reset(records []domain.UserRecord) {
	r.records = make(map[string]*domain.UserRecord, len(records))
	r.order = make([]string, 0, len(records))
	for i := range records {
		rec := records[i].Clone()
		if _, ok := r.records[rec.Email]; !ok {
			r.order = append(r.order, rec.Email)
		}
		r.records[rec.Email] = rec
	}
}

func (r *fileUserRepository) Get(_ context.Context, email string) (*domain.UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[email]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (r *fileUserRepository) GetOrCreate(_ context.Context, email string, build func() *domain.UserRecord) (*domain.UserRecord, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.records[email]; ok {
		return rec.Clone(), false, nil
	}

	rec := build()
	rec.Email = email
	snapshot := append(r.snapshot(), *rec)
	if err := r.file.Save(snapshot); err != nil {
		return nil, false, fmt.Errorf("persist new record: %w", err)
	}

	r.records[email] = rec.Clone()
	r.order = append(r.order, email)
	return rec, true, nil
}

func (r *fileUserRepository) Update(_ context.Context, email string, mutate func(*domain.UserRecord) error) (*domain.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.records[email]
	if !ok {
		return nil, ErrNotFound
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.Email = email

	snapshot := r.snapshot()
	for i := range snapshot {
		if snapshot[i].Email == email {
			snapshot[i] = *next
		}
	}
	if err := r.file.Save(snapshot); err != nil {
		return nil, fmt.Errorf("persist record: %w", err)
	}

	r.records[email] = next.Clone()
	return next, nil
}

func (r *fileUserRepository) List(_ context.Context) ([]domain.UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.UserRecord, 0, len(r.order))
	for _, email := range r.order {
		out = append(out, *r.records[email].Clone())
	}
	return out, nil
}

func (r *fileUserRepository) Replace(_ context.Context, records []domain.UserRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.file.Save(records); err != nil {
		return fmt.Errorf("persist records: %w", err)
	}
	r.reset(records)
	return nil
}

// snapshot lists the records in insertion order for serialization. The
// values share slices with the map and must not be mutated.
func (r *fileUserRepository) snapshot() []domain.UserRecord {
	out := make([]domain.UserRecord, 0, len(r.order)+1)
	for _, email := range r.order {
		out = append(out, *r.records[email])
	}
	return out
}
