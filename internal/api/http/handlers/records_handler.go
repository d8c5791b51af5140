package handlers

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/course-assistant/internal/service"
	apperrors "github.com/spec-kit/course-assistant/pkg/util/errorutil"
)

const (
	uploadField      = "csvFile"
	downloadFileName = "users.csv"
)

// RecordsHandler exposes the record file for inspection, download and
// replacement.
type RecordsHandler struct {
	service *service.RecordsService
}

// NewRecordsHandler constructs handler.
func NewRecordsHandler(recordsService *service.RecordsService) *RecordsHandler {
	return &RecordsHandler{service: recordsService}
}

// Describe GET /csv.
func (h *RecordsHandler) Describe(c *fiber.Ctx) error {
	info, err := h.service.Describe(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": info})
}

// Download GET /csv/download.
func (h *RecordsHandler) Download(c *fiber.Ctx) error {
	data, err := h.service.Export(c.UserContext())
	if err != nil {
		return err
	}
	c.Attachment(downloadFileName)
	return c.Send(data)
}

// Upload POST /csv/upload.
func (h *RecordsHandler) Upload(c *fiber.Ctx) error {
	header, err := c.FormFile(uploadField)
	if err != nil {
		return apperrors.NewBadRequest("no file uploaded")
	}
	file, err := header.Open()
	if err != nil {
		return apperrors.NewBadRequest("unreadable upload")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return apperrors.NewBadRequest("unreadable upload")
	}
	count, err := h.service.Import(c.UserContext(), header.Filename, data)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "records": count})
}
