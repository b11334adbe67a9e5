package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ecoreceipt/backend/internal/domain"
	"github.com/ecoreceipt/backend/internal/infrastructure/export"
	"github.com/ecoreceipt/backend/internal/usecase"
)

// Version is reported by the health endpoint and set at build time
var Version = "1.0.0"

// Handler holds dependencies for HTTP handlers
type Handler struct {
	receipts       *usecase.ReceiptService
	maxUploadBytes int64
}

// NewHandler creates a new HTTP handler.
// maxUploadMB bounds the size of a multipart receipt upload.
func NewHandler(receipts *usecase.ReceiptService, maxUploadMB int) *Handler {
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	return &Handler{
		receipts:       receipts,
		maxUploadBytes: int64(maxUploadMB) << 20,
	}
}

// NormalizeRequest is the body of POST /api/v1/normalize
type NormalizeRequest struct {
	Text *string `json:"text" binding:"required"`
}

// MatchRequest is the body of POST /api/v1/match
type MatchRequest struct {
	Candidates []string `json:"candidates" binding:"required"`
	Threshold  *float64 `json:"threshold"`
}

// AnalyzeTextRequest is the body of POST /api/v1/receipts/text
type AnalyzeTextRequest struct {
	Text   *string `json:"text" binding:"required"`
	Source string  `json:"source"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"service":        "ecoreceipt-backend",
		"version":        Version,
		"catalogEntries": h.receipts.Catalog().Len(),
	})
}

// GetCatalog lists catalog entries in catalog order
func (h *Handler) GetCatalog(c *gin.Context) {
	catalog := h.receipts.Catalog()

	entries := make([]domain.CatalogEntry, 0, catalog.Len())
	for _, e := range catalog.All() {
		entries = append(entries, e)
	}

	duplicates := catalog.Duplicates()
	if duplicates == nil {
		duplicates = []string{}
	}

	c.JSON(http.StatusOK, gin.H{
		"count":      len(entries),
		"entries":    entries,
		"duplicates": duplicates,
	})
}

// Normalize turns raw receipt text into product candidates
func (h *Handler) Normalize(c *gin.Context) {
	var req NormalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"candidates": h.receipts.Normalizer().Normalize(*req.Text),
	})
}

// Match maps candidates onto the catalog, optionally with a per-request threshold
func (h *Handler) Match(c *gin.Context) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}

	matcher := h.receipts.Matcher()
	if req.Threshold != nil {
		m, err := matcher.WithThreshold(*req.Threshold)
		if err != nil {
			respondError(c, err)
			return
		}
		matcher = m
	}

	records, err := matcher.Match(req.Candidates, h.receipts.Catalog())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"threshold": matcher.Threshold(),
		"records":   records,
		"summary":   h.receipts.Aggregator().Summarize(records),
	})
}

// AnalyzeText runs the pipeline over already extracted receipt text
func (h *Handler) AnalyzeText(c *gin.Context) {
	var req AnalyzeTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}

	analysis, err := h.receipts.AnalyzeText(c.Request.Context(), req.Source, *req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// UploadReceipts analyzes uploaded receipt files (form field "files") into one impact report
func (h *Handler) UploadReceipts(c *gin.Context) {
	if c.Request.ContentLength > h.maxUploadBytes {
		h.uploadTooLarge(c)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.uploadTooLarge(c)
			return
		}
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		respondError(c, fmt.Errorf("%w: no files in form field \"files\"", domain.ErrInvalidRequest))
		return
	}

	docs := make([]domain.Document, 0, len(files))
	for _, fh := range files {
		doc, err := readDocument(fh)
		if err != nil {
			respondError(c, err)
			return
		}
		docs = append(docs, doc)
	}

	report, err := h.receipts.AnalyzeBatch(c.Request.Context(), docs, nil)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, report)
}

// GetReport returns a previously generated report
func (h *Handler) GetReport(c *gin.Context) {
	report, ok := h.lookupReport(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report)
}

// ExportReport downloads a report's item breakdown as csv (default) or xlsx
func (h *Handler) ExportReport(c *gin.Context) {
	exporter, err := export.For(c.DefaultQuery("format", export.FormatCSV))
	if err != nil {
		respondError(c, err)
		return
	}

	report, ok := h.lookupReport(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := exporter.Export(&buf, report); err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(report, exporter)))
	c.Data(http.StatusOK, exporter.ContentType(), buf.Bytes())
}

func (h *Handler) uploadTooLarge(c *gin.Context) {
	c.JSON(http.StatusRequestEntityTooLarge, gin.H{
		"error": fmt.Sprintf("upload exceeds %d MB", h.maxUploadBytes>>20),
	})
}

func (h *Handler) lookupReport(c *gin.Context) (*domain.ImpactReport, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, fmt.Errorf("%w: report id must be a UUID", domain.ErrInvalidRequest))
		return nil, false
	}

	report, err := h.receipts.GetReport(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return report, true
}

func readDocument(fh *multipart.FileHeader) (domain.Document, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: open %s: %v", domain.ErrInvalidRequest, fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: read %s: %v", domain.ErrInvalidRequest, fh.Filename, err)
	}

	return domain.Document{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrReportNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnsupportedDocument):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
