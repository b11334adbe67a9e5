package ocr

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecoreceipt/backend/internal/domain"
)

// buildPDF writes a single page PDF showing each line with the standard Helvetica font
func buildPDF(lines ...string) []byte {
	var content bytes.Buffer
	content.WriteString("BT /F1 12 Tf 20 180 Td 14 TL\n")
	for _, line := range lines {
		fmt.Fprintf(&content, "(%s) Tj T*\n", line)
	}
	content.WriteString("ET")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 300 200] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}

// stubExtractor records the documents it receives
type stubExtractor struct {
	text string
	err  error
	docs []domain.Document
}

func (s *stubExtractor) ExtractText(ctx context.Context, doc domain.Document) (string, error) {
	s.docs = append(s.docs, doc)
	return s.text, s.err
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		doc  domain.Document
		want string
	}{
		{"png by content", domain.Document{Name: "scan", Data: []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")}, KindImage},
		{"jpeg by content", domain.Document{Name: "scan.bin", Data: []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}}, KindImage},
		{"pdf by content", domain.Document{Name: "receipt", Data: buildPDF("MILK")}, KindPDF},
		{"plain text", domain.Document{Name: "receipt.txt", Data: []byte("OAT MILK 2.10\nTOTAL 2.10\n")}, KindText},
		{"csv counts as text", domain.Document{Name: "receipt.csv", Data: []byte("item,price\nmilk,2.10\nbread,1.50\n")}, KindText},
		{"declared content type", domain.Document{Name: "upload", ContentType: "image/webp; q=1", Data: []byte{0x00, 0x01, 0x02, 0x03}}, KindImage},
		{"file extension", domain.Document{Name: "photo.JPG", Data: []byte{0x00, 0x01, 0x02, 0x03}}, KindImage},
		{"zip archive", domain.Document{Name: "bundle.zip", Data: []byte("PK\x03\x04\x14\x00\x00\x00\x08\x00")}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, detected := Classify(tt.doc)
			assert.Equal(t, tt.want, kind, "detected %s", detected)
			assert.NotEmpty(t, detected)
		})
	}
}

func TestDispatcher_ExtractText(t *testing.T) {
	ctx := context.Background()

	t.Run("routes images to the OCR extractor", func(t *testing.T) {
		image := &stubExtractor{text: "COCA COLA 3.99"}
		d := NewDispatcher(image)

		text, err := d.ExtractText(ctx, receiptDoc)
		require.NoError(t, err)
		assert.Equal(t, "COCA COLA 3.99", text)
		require.Len(t, image.docs, 1)
		assert.Equal(t, "receipt.png", image.docs[0].Name)
	})

	t.Run("images without OCR", func(t *testing.T) {
		_, err := NewDispatcher(nil).ExtractText(ctx, receiptDoc)
		assert.ErrorIs(t, err, domain.ErrOCRNotConfigured)
	})

	t.Run("text passes through without OCR", func(t *testing.T) {
		image := &stubExtractor{}
		d := NewDispatcher(image)

		text, err := d.ExtractText(ctx, domain.Document{Name: "dump.txt", Data: []byte("\ufeffBREAD 1.50\n")})
		require.NoError(t, err)
		assert.Equal(t, "BREAD 1.50\n", text)
		assert.Empty(t, image.docs)
	})

	t.Run("pdf text layer", func(t *testing.T) {
		d := NewDispatcher(nil)

		text, err := d.ExtractText(ctx, domain.Document{Name: "receipt.pdf", Data: buildPDF("COCA COLA 3.99", "OAT MILK 2.10")})
		require.NoError(t, err)
		assert.Contains(t, text, "COCA COLA 3.99")
		assert.Contains(t, text, "OAT MILK 2.10")
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := NewDispatcher(&stubExtractor{}).ExtractText(ctx, domain.Document{
			Name: "bundle.zip",
			Data: []byte("PK\x03\x04\x14\x00\x00\x00\x08\x00"),
		})
		assert.ErrorIs(t, err, domain.ErrUnsupportedDocument)
	})
}

func TestPDFExtractor_Malformed(t *testing.T) {
	_, err := PDFExtractor{}.ExtractText(context.Background(), domain.Document{
		Name: "broken.pdf",
		Data: []byte("%PDF-1.4\nthis is not a real pdf"),
	})
	assert.ErrorIs(t, err, domain.ErrOCRFailure)
}

func TestPlainTextExtractor_InvalidUTF8(t *testing.T) {
	_, err := PlainTextExtractor{}.ExtractText(context.Background(), domain.Document{
		Name: "binary.txt",
		Data: []byte{0xff, 0xfe, 0xfd},
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedDocument)
}
