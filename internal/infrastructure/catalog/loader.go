// Package catalog loads the product impact catalog from CSV or XLSX sources.
package catalog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ecoreceipt/backend/internal/domain"
)

// Column keys after header normalization
const (
	colProduct            = "product"
	colCategory           = "category"
	colImpactScore        = "impactscore"
	colGreenerAlternative = "greeneralternative"
	colImpactReason       = "impactreason"
	colAlternativeReason  = "alternativereason"
)

var requiredColumns = []string{
	colProduct,
	colCategory,
	colImpactScore,
	colGreenerAlternative,
	colImpactReason,
	colAlternativeReason,
}

var (
	errMissingColumn = errors.New("missing required column")
	errShortRow      = errors.New("row has fewer cells than the header")
	errEmptyProduct  = errors.New("product name is empty")
	errBadScore      = errors.New("impact score must be an integer between 0 and 10")
	errNoHeader      = errors.New("no header row")
	errUnknownSource = errors.New("unsupported catalog file type")
)

// LoadFile reads a catalog from path, choosing the reader by file extension (.csv or .xlsx).
func LoadFile(path string) (*domain.Catalog, error) {
	source := filepath.Base(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" && ext != ".xlsx" {
		return nil, &domain.CatalogLoadError{Source: source, Err: fmt.Errorf("%w: %q", errUnknownSource, ext)}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.CatalogLoadError{Source: source, Err: err}
	}

	var c *domain.Catalog
	if ext == ".xlsx" {
		c, err = ReadXLSX(bytes.NewReader(data), source)
	} else {
		c, err = ReadCSV(bytes.NewReader(data), source)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("Loaded product catalog", "source", source, "entries", c.Len())
	return c, nil
}

// ReadCSV parses a comma separated catalog with a header row
func ReadCSV(r io.Reader, source string) (*domain.Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, &domain.CatalogLoadError{Source: source, Row: parseErr.Line, Err: parseErr.Err}
		}
		return nil, &domain.CatalogLoadError{Source: source, Err: err}
	}

	return fromRows(source, rows)
}

// ReadXLSX parses the first sheet of a workbook with a header row
func ReadXLSX(r io.Reader, source string) (*domain.Catalog, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &domain.CatalogLoadError{Source: source, Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &domain.CatalogLoadError{Source: source, Err: errNoHeader}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &domain.CatalogLoadError{Source: source, Err: err}
	}

	// GetRows drops trailing empty cells, which are empty text columns rather than short rows
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	for i, row := range rows {
		if len(row) < width {
			rows[i] = append(row, make([]string, width-len(row))...)
		}
	}

	return fromRows(source, rows)
}

// fromRows validates the header, converts each data row and builds the catalog.
// Blank rows are skipped; row numbers in errors count the header as row 1.
func fromRows(source string, rows [][]string) (*domain.Catalog, error) {
	headerIdx := -1
	for i, row := range rows {
		if !isBlank(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, &domain.CatalogLoadError{Source: source, Err: errNoHeader}
	}

	columns := make(map[string]int)
	for i, name := range rows[headerIdx] {
		key := normalizeHeader(name)
		if _, seen := columns[key]; !seen {
			columns[key] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.CatalogLoadError{
			Source: source,
			Row:    headerIdx + 1,
			Err:    fmt.Errorf("%w: %s", errMissingColumn, strings.Join(missing, ", ")),
		}
	}

	width := 0
	for _, col := range requiredColumns {
		width = max(width, columns[col]+1)
	}

	entries := make([]domain.CatalogEntry, 0, len(rows)-headerIdx-1)
	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}

		entry, err := parseRow(row, columns, width)
		if err != nil {
			return nil, &domain.CatalogLoadError{Source: source, Row: i + 1, Err: err}
		}
		entries = append(entries, entry)
	}

	c := domain.NewCatalog(entries)
	if c.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", source, domain.ErrEmptyCatalog)
	}

	if dups := c.Duplicates(); len(dups) > 0 {
		slog.Warn("Duplicate products in catalog, later rows win",
			"source", source,
			"products", dups)
	}

	return c, nil
}

func parseRow(row []string, columns map[string]int, width int) (domain.CatalogEntry, error) {
	if len(row) < width {
		return domain.CatalogEntry{}, fmt.Errorf("%w: %d of %d", errShortRow, len(row), width)
	}
	cell := func(col string) string {
		return strings.TrimSpace(row[columns[col]])
	}

	product := cell(colProduct)
	if product == "" {
		return domain.CatalogEntry{}, errEmptyProduct
	}

	score, err := parseImpactScore(cell(colImpactScore))
	if err != nil {
		return domain.CatalogEntry{}, err
	}

	return domain.CatalogEntry{
		CanonicalName:      product,
		Category:           cell(colCategory),
		ImpactScore:        score,
		GreenerAlternative: cell(colGreenerAlternative),
		ImpactReason:       cell(colImpactReason),
		AlternativeReason:  cell(colAlternativeReason),
	}, nil
}

// parseImpactScore accepts "8" and spreadsheet style "8.0"
func parseImpactScore(raw string) (int, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || f < 0 || f > 10 {
		return 0, fmt.Errorf("%w, got %q", errBadScore, raw)
	}
	return int(f), nil
}

// normalizeHeader lowercases a header cell and drops separators,
// so "Impact Score", "impact_score" and "impactScore" all map to the same key.
func normalizeHeader(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', ' ', '\t':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(name)))
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
