package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/n1str/RationX/internal/database/db"
	"github.com/n1str/RationX/internal/logger"
	"github.com/n1str/RationX/internal/services"
	"github.com/n1str/RationX/internal/utils"
)

// Exporter renders transactions as a spreadsheet
type Exporter interface {
	TransactionsWorkbook(ctx context.Context, userID int64, filter db.ListTransactionsParams) (*bytes.Buffer, error)
}

// ExportStorage keeps rendered exports for later download
type ExportStorage interface {
	GenerateExportKey(userID int64, filename string) (string, error)
	Upload(ctx context.Context, key, contentType string, body io.Reader) error
	GeneratePresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// ExportHandler handles spreadsheet exports
type ExportHandler struct {
	exporter  Exporter
	storage   ExportStorage
	urlExpiry time.Duration
	now       func() time.Time
}

// NewExportHandler creates an export handler. storage may be nil, in which
// case only direct downloads are available.
func NewExportHandler(exporter Exporter, storage ExportStorage, urlExpiry time.Duration) *ExportHandler {
	return &ExportHandler{
		exporter:  exporter,
		storage:   storage,
		urlExpiry: urlExpiry,
		now:       time.Now,
	}
}

// DownloadTransactions streams the workbook as an attachment
// GET /v1/exports/transactions.xlsx (accepts the transaction list filters)
func (h *ExportHandler) DownloadTransactions(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	filter, err := parseTransactionFilter(c)
	if err != nil {
		return err
	}

	buf, err := h.exporter.TransactionsWorkbook(c.Context(), userID, filter)
	if err != nil {
		return utils.FromError(err)
	}

	filename := services.ExportFilename(userID, h.now())
	c.Set(fiber.HeaderContentType, services.XLSXContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(buf.Bytes())
}

// CreateExport uploads the workbook to S3 and returns a presigned download URL
// POST /v1/exports/transactions
// Returns: download_url, file_key, expires_in
func (h *ExportHandler) CreateExport(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	if h.storage == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "export storage is not configured",
		})
	}
	filter, err := parseTransactionFilter(c)
	if err != nil {
		return err
	}

	// 1. Render
	buf, err := h.exporter.TransactionsWorkbook(c.Context(), userID, filter)
	if err != nil {
		return utils.FromError(err)
	}

	// 2. Upload
	key, err := h.storage.GenerateExportKey(userID, services.ExportFilename(userID, h.now()))
	if err != nil {
		return utils.NewInternalError(err)
	}
	if err := h.storage.Upload(c.Context(), key, services.XLSXContentType, buf); err != nil {
		return fmt.Errorf("upload export: %w", err)
	}

	// 3. Sign
	url, err := h.storage.GeneratePresignedURL(c.Context(), key, h.urlExpiry)
	if err != nil {
		return fmt.Errorf("presign export: %w", err)
	}

	log := logger.FromContext(c.Context())
	log.Info().Int64("user_id", userID).Str("file_key", key).Msg("export uploaded")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"download_url": url,
		"file_key":     key,
		"expires_in":   int(h.urlExpiry.Seconds()),
	})
}
