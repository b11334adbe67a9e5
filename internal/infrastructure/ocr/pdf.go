package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/ecoreceipt/backend/internal/domain"
)

// PDFExtractor reads the embedded text layer of PDF receipts
type PDFExtractor struct{}

// ExtractText returns the plain text of every non-empty page joined by newlines.
// Scanned PDFs without a text layer yield an empty string.
func (PDFExtractor) ExtractText(ctx context.Context, doc domain.Document) (text string, err error) {
	// the pdf reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: malformed pdf %s: %v", domain.ErrOCRFailure, doc.Name, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return "", fmt.Errorf("%w: read pdf %s: %v", domain.ErrOCRFailure, doc.Name, err)
	}

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pageText, err := p.GetPlainText(nil)
		if err != nil {
			slog.Warn("Skipping unreadable PDF page", "document", doc.Name, "page", i, "error", err)
			continue
		}
		if pageText = strings.TrimSpace(pageText); pageText != "" {
			pages = append(pages, pageText)
		}
	}

	return strings.Join(pages, "\n"), nil
}
