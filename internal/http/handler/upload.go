package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ondrasimku/vision-service/internal/domain"
	"github.com/ondrasimku/vision-service/internal/http/templates"
	"github.com/ondrasimku/vision-service/internal/metrics"
	"github.com/ondrasimku/vision-service/internal/storage"
	"github.com/ondrasimku/vision-service/internal/upload"
)

// multipartOverhead is added to the file size limit to leave room for the
// multipart headers and boundaries around the file part.
const multipartOverhead = 1 << 20

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type Detector interface {
	Detect(ctx context.Context, up domain.Upload) (*domain.DetectionResult, error)
	DetectorName() string
}

type UploadHandler struct {
	detector Detector
	storage  storage.Storage
	maxSize  int64
	title    string
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewUploadHandler(detector Detector, store storage.Storage, maxSize int64, title string, m *metrics.Metrics, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		detector: detector,
		storage:  store,
		maxSize:  maxSize,
		title:    title,
		metrics:  m,
		logger:   logger,
	}
}

func (h *UploadHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, templates.IndexName, templates.IndexData{Title: h.title})
}

// Upload validates the "file" part, runs detection and renders the verdict.
// Validation failures answer 200 with a JSON error body, like the form
// always has; only oversize uploads and internal failures change the status.
func (h *UploadHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxSize+multipartOverhead)

	form, err := c.MultipartForm()
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.reject(c, upload.ErrTooLarge, "")
			return
		}
		h.logger.Warn("Failed to parse multipart form", "error", err)
		h.reject(c, upload.ErrNoFilePart, "")
		return
	}

	fh, err := upload.Extract(form)
	if err != nil {
		h.reject(c, err, "")
		return
	}

	up, err := upload.Read(fh, h.maxSize)
	if err != nil {
		h.reject(c, err, fh.Filename)
		return
	}

	result, err := h.detector.Detect(c.Request.Context(), up)
	if err != nil {
		h.metrics.Upload(metrics.OutcomeError)
		h.logger.Error("Detection failed", "filename", up.Filename, "originalName", up.OriginalName, "detector", h.detector.DetectorName(), "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to process image",
		})
		return
	}

	h.metrics.Upload(metrics.OutcomeOK)
	c.HTML(http.StatusOK, templates.IndexName, templates.IndexData{
		Title:    h.title,
		Result:   result.Verdict.Label,
		ImageURL: result.FileURL,
	})
}

// reject answers a failed upload. originalName is the client's filename, empty
// when the request carried no file.
func (h *UploadHandler) reject(c *gin.Context, err error, originalName string) {
	var verr *upload.ValidationError
	if !errors.As(err, &verr) {
		h.metrics.Upload(metrics.OutcomeError)
		h.logger.Error("Failed to read upload", "originalName", originalName, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to process file",
		})
		return
	}

	h.metrics.Upload(metrics.OutcomeRejected)
	h.logger.Warn("Upload rejected", "originalName", originalName, "reason", verr.Error())

	if errors.Is(err, upload.ErrTooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error:   verr.Error(),
			Details: fmt.Sprintf("Maximum size is %d bytes", h.maxSize),
		})
		return
	}
	c.JSON(http.StatusOK, ErrorResponse{Error: verr.Error()})
}

// GetFile streams a previously uploaded image back to the browser.
func (h *UploadHandler) GetFile(c *gin.Context) {
	fileID := c.Param("fileId")
	if fileID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "File ID is required",
		})
		return
	}

	ctx := c.Request.Context()
	file, fileInfo, err := h.storage.Open(ctx, fileID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.logger.Warn("File not found", "fileId", fileID)
		} else {
			h.logger.Error("Failed to open file", "fileId", fileID, "error", err)
		}
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "File not found",
		})
		return
	}
	defer file.Close()

	c.DataFromReader(http.StatusOK, fileInfo.Size, fileInfo.ContentType, file, nil)
}
