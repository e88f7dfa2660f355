package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/n1str/RationX/internal/logger"
	"github.com/n1str/RationX/internal/services"
	"github.com/n1str/RationX/internal/utils"
)

// MaxImportFileSize bounds multipart uploads
const MaxImportFileSize = 4 << 20

var (
	// AllowedContentTypes defines the content types that are allowed for upload
	AllowedContentTypes = map[string]bool{
		"text/csv":                 true,
		"application/vnd.ms-excel": true,
		services.XLSXContentType:   true,
	}
)

// Importer creates transactions from an uploaded file
type Importer interface {
	Import(ctx context.Context, userID int64, filename string, file io.Reader) (*services.ImportSummary, error)
}

// UploadStorage holds files uploaded directly to S3 for later import
type UploadStorage interface {
	GenerateImportKey(userID int64, filename string) (string, error)
	GeneratePresignedUploadURL(ctx context.Context, key, contentType string, expiry time.Duration) (string, error)
	DownloadFile(ctx context.Context, key string) (io.ReadCloser, error)
}

// UploadHandler handles transaction file imports
type UploadHandler struct {
	importer  Importer
	storage   UploadStorage
	urlExpiry time.Duration
}

// NewUploadHandler creates an upload handler. storage may be nil, in which
// case only multipart uploads are available.
func NewUploadHandler(importer Importer, storage UploadStorage, urlExpiry time.Duration) *UploadHandler {
	return &UploadHandler{
		importer:  importer,
		storage:   storage,
		urlExpiry: urlExpiry,
	}
}

// UploadFile imports a multipart file field named "file"
// POST /v1/imports/transactions
func (h *UploadHandler) UploadFile(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	header, err := c.FormFile("file")
	if err != nil {
		return utils.NewBadRequestError("file is required", nil)
	}
	if header.Size > MaxImportFileSize {
		return utils.NewBadRequestError(fmt.Sprintf("file exceeds %d bytes", MaxImportFileSize), nil)
	}
	if !isImportFilename(header.Filename) {
		return utils.NewBadRequestError("unsupported file type", fiber.Map{"allowed": []string{".csv", ".xlsx"}})
	}

	file, err := header.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	summary, err := h.importer.Import(c.Context(), userID, filepath.Base(header.Filename), file)
	if err != nil {
		return utils.FromError(err)
	}
	return utils.SuccessResponse(c, summary)
}

// GetPresignedURL generates a presigned URL for file upload
// Query params: filename (required), content_type (required)
// Returns: upload_url, file_key, expires_in
func (h *UploadHandler) GetPresignedURL(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	if h.storage == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "upload storage is not configured",
		})
	}

	// 1. Validate query parameters
	filename := c.Query("filename")
	contentType := c.Query("content_type")
	if filename == "" {
		return utils.NewBadRequestError("filename is required", nil)
	}
	if contentType == "" {
		return utils.NewBadRequestError("content_type is required", nil)
	}
	if !AllowedContentTypes[contentType] || !isImportFilename(filename) {
		return utils.NewBadRequestError("unsupported file type", nil)
	}

	// 2. Generate upload key
	key, err := h.storage.GenerateImportKey(userID, filename)
	if err != nil {
		return utils.NewInternalError(err)
	}

	// 3. Generate presigned URL
	url, err := h.storage.GeneratePresignedUploadURL(c.Context(), key, contentType, h.urlExpiry)
	if err != nil {
		return fmt.Errorf("presign upload: %w", err)
	}

	return c.JSON(fiber.Map{
		"upload_url": url,
		"file_key":   key,
		"expires_in": int(h.urlExpiry.Seconds()),
	})
}

// ProcessUploadRequest represents the request body for ProcessUpload
type ProcessUploadRequest struct {
	FileKey string `json:"file_key"`
}

// ProcessUpload imports a file previously uploaded through a presigned URL
// POST /v1/imports/process
// Body: {"file_key": "imports/42/1699564800-1a2b3c4d-march.csv"}
func (h *UploadHandler) ProcessUpload(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	if h.storage == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "upload storage is not configured",
		})
	}

	// 1. Parse request body
	var req ProcessUploadRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.NewBadRequestError("invalid request body", nil)
	}
	if req.FileKey == "" {
		return utils.NewBadRequestError("file_key is required", nil)
	}

	// 2. The key must sit under the caller's prefix
	if !strings.HasPrefix(req.FileKey, services.ImportKeyPrefix(userID)) {
		return utils.NewForbiddenError("forbidden - cannot access this file")
	}

	// 3. Download and import
	reader, err := h.storage.DownloadFile(c.Context(), req.FileKey)
	if err != nil {
		logger.FromContext(c.Context()).Warn().Err(err).Str("file_key", req.FileKey).Msg("upload download failed")
		return utils.NewNotFoundError("file")
	}
	defer reader.Close()

	// Presigned uploads bypass the body limit, so cap what is read back
	data, err := io.ReadAll(io.LimitReader(reader, MaxImportFileSize+1))
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxImportFileSize {
		return utils.NewBadRequestError(fmt.Sprintf("file exceeds %d bytes", MaxImportFileSize), fiber.Map{"field": "file_key"})
	}

	summary, err := h.importer.Import(c.Context(), userID, filepath.Base(req.FileKey), bytes.NewReader(data))
	if err != nil {
		return utils.FromError(err)
	}
	return utils.SuccessResponse(c, summary)
}

func isImportFilename(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}
