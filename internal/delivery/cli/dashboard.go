package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/ecoreceipt/backend/internal/domain"
)

// RenderReport builds the impact dashboard: grade card, key figures, breakdown table and suggestions.
func RenderReport(report *domain.ImpactReport) string {
	if report == nil {
		return FormatError("No report available")
	}

	sections := []string{
		FormatTitle("Receipt Impact Report"),
		SubtleStyle.Render(fmt.Sprintf("%s · %d receipt(s) · %s",
			report.ID, len(report.Receipts), report.GeneratedAt.Format("2006-01-02 15:04"))),
	}

	if failed := failedReceipts(report); failed != "" {
		sections = append(sections, failed)
	}

	if report.InsufficientData {
		sections = append(sections,
			renderGradeCard(report),
			FormatWarning(fmt.Sprintf("No catalog products recognized (%d unknown item(s)); nothing to score.", report.UnknownCount)))
		return strings.Join(sections, "\n\n")
	}

	sections = append(sections,
		lipgloss.JoinHorizontal(lipgloss.Top, renderGradeCard(report), " ", renderFigures(report)),
		renderBreakdown(report.Items),
	)

	if len(report.Suggestions) > 0 {
		sections = append(sections, renderSuggestions(report))
	}

	return strings.Join(sections, "\n\n")
}

func renderGradeCard(report *domain.ImpactReport) string {
	color := GradeColor(report.Grade)
	grade := lipgloss.NewStyle().
		Bold(true).
		Foreground(color).
		Width(9).
		Align(lipgloss.Center).
		Render(string(report.Grade))

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(color).
		Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Center, SubtleStyle.Render("Eco Grade"), grade))
}

func renderFigures(report *domain.ImpactReport) string {
	lines := []string{
		fmt.Sprintf("Average impact     %s / 10", ScoreStyle(int(report.AverageImpact+0.5)).Render(fmt.Sprintf("%.2f", report.AverageImpact))),
		fmt.Sprintf("High-impact items  %d", report.HighImpactCount),
		fmt.Sprintf("Unrecognized items %d", report.UnknownCount),
		fmt.Sprintf("Weekly CO2         %.2f kg", report.WeeklyCO2),
		fmt.Sprintf("Monthly CO2        %.2f kg", report.MonthlyCO2),
		SuccessStyle.Render(fmt.Sprintf("Potential saving   %.2f kg / week", report.PotentialReduction)),
	}
	return BoxStyle.Render(strings.Join(lines, "\n"))
}

func renderBreakdown(items []domain.ReportItem) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(ChartIcon+" Impact Breakdown") + "\n")

	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Item\tProduct\tCategory\tScore\tCO2 (kg)\tConfidence")
	fmt.Fprintln(w, "────\t───────\t────────\t─────\t────────\t──────────")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2f\t%.1f%%\n",
			item.ItemDetected,
			item.MatchedProduct,
			item.Category,
			item.ImpactScore,
			item.EstimatedCO2,
			item.Confidence)
	}
	_ = w.Flush()

	return strings.TrimRight(b.String(), "\n")
}

func renderSuggestions(report *domain.ImpactReport) string {
	lines := []string{TitleStyle.Render(SwapIcon + " Greener Swaps")}
	for _, s := range report.Suggestions {
		lines = append(lines,
			fmt.Sprintf("%s %s → %s",
				ErrorStyle.Render(fmt.Sprintf("[%d]", s.ImpactScore)),
				BoldStyle.Render(s.Product),
				SuccessStyle.Render(s.GreenerAlternative)),
			SubtleStyle.Render("    "+s.AlternativeReason))
	}
	return strings.Join(lines, "\n")
}

func failedReceipts(report *domain.ImpactReport) string {
	var lines []string
	for _, r := range report.Receipts {
		if r.ExtractionError != "" {
			lines = append(lines, FormatWarning(fmt.Sprintf("%s: %s", r.Source, r.ExtractionError)))
		}
	}
	return strings.Join(lines, "\n")
}

// WriteRecords prints match records as a table, UNKNOWN rows included.
func WriteRecords(out io.Writer, records []domain.MatchRecord) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, HeaderStyle.Render("Item")+"\t"+HeaderStyle.Render("Product")+"\t"+
		HeaderStyle.Render("Confidence")+"\t"+HeaderStyle.Render("Score")+"\t"+HeaderStyle.Render("Alternative"))
	for _, r := range records {
		product := r.MatchedProduct
		if r.IsUnknown() {
			product = SubtleStyle.Render(product)
		}
		fmt.Fprintf(w, "%s\t%s\t%.1f%%\t%d\t%s\n",
			r.ItemDetected, product, r.Confidence, r.ImpactScore, r.GreenerAlternative)
	}
	return w.Flush()
}

// WriteCatalog prints catalog entries in catalog order, followed by duplicate warnings.
func WriteCatalog(out io.Writer, catalog *domain.Catalog) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, HeaderStyle.Render("Product")+"\t"+HeaderStyle.Render("Category")+"\t"+
		HeaderStyle.Render("Score")+"\t"+HeaderStyle.Render("Greener Alternative"))
	for _, e := range catalog.All() {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", e.CanonicalName, e.Category, e.ImpactScore, e.GreenerAlternative)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out, SubtleStyle.Render(fmt.Sprintf("%d product(s)", catalog.Len())))
	for _, name := range catalog.Duplicates() {
		fmt.Fprintln(out, FormatWarning("duplicate row for "+name+", the last one was kept"))
	}
	return nil
}
