package domain

import (
	"context"
	"io"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// TextExtractor turns a receipt document into raw text.
// Garbled output is valid input for the pipeline; an empty string means nothing was read.
type TextExtractor interface {
	ExtractText(ctx context.Context, doc Document) (string, error)
}

// ReportExporter writes an impact report in a tabular file format
type ReportExporter interface {
	Export(w io.Writer, report *ImpactReport) error
	ContentType() string
	Extension() string
}
