// Package export writes impact reports as CSV or XLSX tables.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ecoreceipt/backend/internal/domain"
)

// Supported formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// itemHeaders are the breakdown table columns, in match record order
var itemHeaders = []string{
	"itemDetected",
	"matchedProduct",
	"confidence",
	"impactScore",
	"category",
	"greenerAlternative",
	"impactReason",
	"alternativeReason",
	"estimatedCO2",
}

// For returns the exporter for format (case-insensitive, leading dot allowed)
func For(format string) (domain.ReportExporter, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(format)), ".") {
	case FormatCSV:
		return CSVExporter{}, nil
	case FormatXLSX:
		return XLSXExporter{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}
}

// WriteFile exports report to path, choosing the format from the file extension
func WriteFile(path string, report *domain.ImpactReport) error {
	exporter, err := For(filepath.Ext(path))
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("export: create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create file %q: %w", path, err)
	}

	if err := exporter.Export(f, report); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// FileName suggests a download name for report in the exporter's format
func FileName(report *domain.ImpactReport, exporter domain.ReportExporter) string {
	return fmt.Sprintf("impact-report-%s.%s", report.GeneratedAt.Format("20060102-150405"), exporter.Extension())
}

func itemRow(item domain.ReportItem) []string {
	return []string{
		item.ItemDetected,
		item.MatchedProduct,
		strconv.FormatFloat(item.Confidence, 'f', 2, 64),
		strconv.Itoa(item.ImpactScore),
		item.Category,
		item.GreenerAlternative,
		item.ImpactReason,
		item.AlternativeReason,
		strconv.FormatFloat(item.EstimatedCO2, 'f', 2, 64),
	}
}
