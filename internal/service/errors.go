package service

import (
	"errors"

	"github.com/spec-kit/course-assistant/internal/persistence"
	"github.com/spec-kit/course-assistant/internal/repository"
	apperrors "github.com/spec-kit/course-assistant/pkg/util/errorutil"
)

// mapStoreError translates record store failures into domain errors.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("user", nil)
	case errors.Is(err, persistence.ErrCorrupt):
		return apperrors.NewStorageCorrupt(err)
	default:
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) {
			return err
		}
		return apperrors.NewInternalError(err)
	}
}
