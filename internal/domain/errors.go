package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrCatalogLoad is returned when the catalog source is missing, malformed or lacks required columns
	ErrCatalogLoad = errors.New("catalog load failed")

	// ErrEmptyCatalog is returned when a catalog has no entries to match against
	ErrEmptyCatalog = errors.New("catalog has no entries")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrOCRFailure is returned when the OCR service cannot produce text
	ErrOCRFailure = errors.New("OCR request failed")

	// ErrOCRNotConfigured is returned when an image arrives but no OCR service is configured
	ErrOCRNotConfigured = errors.New("OCR service not configured")

	// ErrUnsupportedDocument is returned for documents that are neither images, PDFs nor text
	ErrUnsupportedDocument = errors.New("unsupported document type")

	// ErrReportNotFound is returned when a report id is unknown or expired
	ErrReportNotFound = errors.New("report not found")

	// ErrUnsupportedFormat is returned for unknown export formats
	ErrUnsupportedFormat = errors.New("unsupported export format")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
)

// CatalogLoadError describes why a catalog source could not be loaded.
// Row is the 1-based row in the source, header included, or 0 when the failure is not row specific.
type CatalogLoadError struct {
	Source string
	Row    int
	Err    error
}

func (e *CatalogLoadError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s: %s row %d: %v", ErrCatalogLoad, e.Source, e.Row, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrCatalogLoad, e.Source, e.Err)
}

func (e *CatalogLoadError) Unwrap() error {
	return e.Err
}

// Is reports every CatalogLoadError as ErrCatalogLoad.
func (e *CatalogLoadError) Is(target error) bool {
	return target == ErrCatalogLoad
}
