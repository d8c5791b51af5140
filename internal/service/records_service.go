package service

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/spec-kit/course-assistant/internal/persistence"
	"github.com/spec-kit/course-assistant/internal/repository"
	apperrors "github.com/spec-kit/course-assistant/pkg/util/errorutil"
)

// RecordsService manages the backing store as a whole file: inspection,
// download and replacement by upload.
type RecordsService struct {
	users repository.UserRepository
	file  *persistence.FlatFile
}

// NewRecordsService constructs the service. file is nil when records do not
// live in a flat file.
func NewRecordsService(users repository.UserRepository, file *persistence.FlatFile) *RecordsService {
	return &RecordsService{users: users, file: file}
}

// StoreInfo describes the backing store.
type StoreInfo struct {
	FileName string `json:"filename"`
	Records  int    `json:"records"`
}

// Describe makes sure the backing file exists and reports on it.
func (s *RecordsService) Describe(ctx context.Context) (*StoreInfo, error) {
	info := &StoreInfo{FileName: "users.csv"}
	if s.file != nil {
		if err := s.file.EnsureExists(); err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		info.FileName = filepath.Base(s.file.Path())
	}
	records, err := s.users.List(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	info.Records = len(records)
	return info, nil
}

// Export serializes every record in store format.
func (s *RecordsService) Export(ctx context.Context) ([]byte, error) {
	if s.file != nil {
		ok, err := s.file.Exists()
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		if !ok {
			return nil, apperrors.NewNotFound("file", nil)
		}
	}
	records, err := s.users.List(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	var buf bytes.Buffer
	buf.WriteString(persistence.HeaderRow + "\n")
	if err := persistence.EncodeRecords(&buf, records); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return buf.Bytes(), nil
}

// Import replaces every record with the parsed upload. The upload must be a
// .csv file whose orders columns all decode.
func (s *RecordsService) Import(ctx context.Context, fileName string, data []byte) (int, error) {
	if !strings.HasSuffix(strings.ToLower(fileName), ".csv") {
		return 0, apperrors.NewBadRequest("Only CSV files are allowed")
	}
	records, err := persistence.DecodeRecords(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, persistence.ErrCorrupt) {
			return 0, apperrors.NewValidationError("malformed upload", map[string]any{"reason": err.Error()})
		}
		return 0, apperrors.NewBadRequest(err.Error())
	}
	if err := s.users.Replace(ctx, records); err != nil {
		return 0, mapStoreError(err)
	}
	return len(records), nil
}
