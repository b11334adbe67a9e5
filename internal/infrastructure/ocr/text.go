package ocr

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ecoreceipt/backend/internal/domain"
)

// PlainTextExtractor passes through text documents such as saved OCR dumps
type PlainTextExtractor struct{}

// ExtractText returns the document as UTF-8 text, dropping a leading byte order mark
func (PlainTextExtractor) ExtractText(ctx context.Context, doc domain.Document) (string, error) {
	if !utf8.Valid(doc.Data) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8 text", domain.ErrUnsupportedDocument, doc.Name)
	}
	return strings.TrimPrefix(string(doc.Data), "\ufeff"), nil
}
