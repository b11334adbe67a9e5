package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ecoreceipt/backend/internal/domain"
)

// Sheet names in exported workbooks
const (
	SheetImpact  = "Impact"
	SheetSummary = "Summary"
)

// XLSXExporter writes a workbook with the item breakdown and a summary sheet
type XLSXExporter struct{}

func (XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSXExporter) Extension() string { return FormatXLSX }

func (XLSXExporter) Export(w io.Writer, report *domain.ImpactReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetImpact); err != nil {
		return fmt.Errorf("xlsx: rename sheet: %w", err)
	}

	for i, h := range itemHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetImpact, cell, h)
	}

	for i, item := range report.Items {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(SheetImpact, cell, value)
		}

		set(1, item.ItemDetected)
		set(2, item.MatchedProduct)
		set(3, item.Confidence)
		set(4, item.ImpactScore)
		set(5, item.Category)
		set(6, item.GreenerAlternative)
		set(7, item.ImpactReason)
		set(8, item.AlternativeReason)
		set(9, item.EstimatedCO2)
	}

	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("xlsx: add summary sheet: %w", err)
	}
	summary := [][2]any{
		{"reportId", report.ID.String()},
		{"generatedAt", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")},
		{"receipts", len(report.Receipts)},
		{"grade", string(report.Grade)},
		{"averageImpact", report.AverageImpact},
		{"highImpactCount", report.HighImpactCount},
		{"unknownCount", report.UnknownCount},
		{"weeklyCO2", report.WeeklyCO2},
		{"monthlyCO2", report.MonthlyCO2},
		{"potentialReduction", report.PotentialReduction},
		{"insufficientData", report.InsufficientData},
	}
	for i, kv := range summary {
		_ = f.SetCellValue(SheetSummary, fmt.Sprintf("A%d", i+1), kv[0])
		_ = f.SetCellValue(SheetSummary, fmt.Sprintf("B%d", i+1), kv[1])
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx: write workbook: %w", err)
	}
	return nil
}
