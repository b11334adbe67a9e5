package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/ecoreceipt/backend/internal/domain"
)

// CSVExporter writes the report's item breakdown as a CSV table with a header row
type CSVExporter struct{}

func (CSVExporter) ContentType() string { return "text/csv; charset=utf-8" }

func (CSVExporter) Extension() string { return FormatCSV }

func (CSVExporter) Export(w io.Writer, report *domain.ImpactReport) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(itemHeaders); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, item := range report.Items {
		if err := cw.Write(itemRow(item)); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
