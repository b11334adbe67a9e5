package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/ecoreceipt/backend/internal/domain"
)

// Document kinds the dispatcher can route
const (
	KindImage = "image"
	KindPDF   = "pdf"
	KindText  = "text"
)

// Dispatcher routes each document to the extractor for its type.
// The type is sniffed from the content; the declared content type and the
// file extension are only consulted when sniffing is inconclusive.
type Dispatcher struct {
	image domain.TextExtractor
	pdf   domain.TextExtractor
	text  domain.TextExtractor
}

// NewDispatcher creates a dispatcher. image may be nil when no OCR service is configured.
func NewDispatcher(image domain.TextExtractor) *Dispatcher {
	return &Dispatcher{
		image: image,
		pdf:   PDFExtractor{},
		text:  PlainTextExtractor{},
	}
}

// ExtractText implements domain.TextExtractor
func (d *Dispatcher) ExtractText(ctx context.Context, doc domain.Document) (string, error) {
	kind, detected := Classify(doc)
	slog.Debug("Dispatching document", "document", doc.Name, "kind", kind, "mime", detected)

	switch kind {
	case KindPDF:
		return d.pdf.ExtractText(ctx, doc)
	case KindText:
		return d.text.ExtractText(ctx, doc)
	case KindImage:
		if d.image == nil {
			return "", domain.ErrOCRNotConfigured
		}
		return d.image.ExtractText(ctx, doc)
	default:
		return "", fmt.Errorf("%w: %s (%s)", domain.ErrUnsupportedDocument, doc.Name, detected)
	}
}

// Classify returns the document kind ("" when unsupported) and the MIME type it was based on
func Classify(doc domain.Document) (kind, detected string) {
	m := mimetype.Detect(doc.Data)
	if k := kindOf(m); k != "" {
		return k, m.String()
	}

	// Sniffing falls back to application/octet-stream for unknown binary data
	if doc.ContentType != "" {
		if mt, _, err := mime.ParseMediaType(doc.ContentType); err == nil {
			if k := kindOfType(mt); k != "" {
				return k, mt
			}
		}
	}

	if mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(doc.Name))); mt != "" {
		base, _, _ := strings.Cut(mt, ";")
		if k := kindOfType(base); k != "" {
			return k, base
		}
	}

	return "", m.String()
}

// kindOf walks the detected type and its parents, so text/csv counts as text
func kindOf(m *mimetype.MIME) string {
	for ; m != nil; m = m.Parent() {
		if k := kindOfType(m.String()); k != "" {
			return k
		}
	}
	return ""
}

func kindOfType(mediaType string) string {
	base, _, _ := strings.Cut(mediaType, ";")
	base = strings.TrimSpace(strings.ToLower(base))
	switch {
	case base == "application/pdf":
		return KindPDF
	case base == "text/plain":
		return KindText
	case strings.HasPrefix(base, "image/"):
		return KindImage
	}
	return ""
}
