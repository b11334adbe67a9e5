package usecase

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/ecoreceipt/backend/internal/domain"
)

// Report defaults
const (
	DefaultCO2PerImpactPoint = 0.5 // kg CO2 per impact point per item
	DefaultWeeksPerMonth     = 4.0
)

// ReportConfig holds configuration for the report builder
type ReportConfig struct {
	CO2PerImpactPoint float64
	WeeksPerMonth     float64
}

// ReportBuilder combines receipt analyses into an impact report
type ReportBuilder struct {
	aggregator        *Aggregator
	co2PerImpactPoint float64
	weeksPerMonth     float64
	now               func() time.Time
}

// NewReportBuilder creates a new report builder
func NewReportBuilder(aggregator *Aggregator, config ReportConfig) *ReportBuilder {
	co2 := config.CO2PerImpactPoint
	if !(co2 > 0) || math.IsInf(co2, 1) {
		co2 = DefaultCO2PerImpactPoint
	}

	weeks := config.WeeksPerMonth
	if !(weeks > 0) || math.IsInf(weeks, 1) {
		weeks = DefaultWeeksPerMonth
	}

	return &ReportBuilder{
		aggregator:        aggregator,
		co2PerImpactPoint: co2,
		weeksPerMonth:     weeks,
		now:               time.Now,
	}
}

// GradeFor maps an average impact score onto the letter bands
// ≤3 A, ≤5 B, ≤7 C, otherwise D.
func GradeFor(averageImpact float64) domain.Grade {
	switch {
	case averageImpact <= 3:
		return domain.GradeA
	case averageImpact <= 5:
		return domain.GradeB
	case averageImpact <= 7:
		return domain.GradeC
	default:
		return domain.GradeD
	}
}

// Build aggregates every receipt's records into one report.
// A report without any matched item is still produced, flagged as insufficient data.
func (b *ReportBuilder) Build(receipts []domain.ReceiptAnalysis) *domain.ImpactReport {
	var records []domain.MatchRecord
	for _, r := range receipts {
		records = append(records, r.Records...)
	}
	summary := b.aggregator.Summarize(records)

	report := &domain.ImpactReport{
		ID:               uuid.New(),
		GeneratedAt:      b.now().UTC(),
		Receipts:         receipts,
		Items:            make([]domain.ReportItem, 0, len(summary.Matched)),
		Suggestions:      make([]domain.Suggestion, 0, summary.HighImpactCount),
		AverageImpact:    summary.AverageImpact,
		HighImpactCount:  summary.HighImpactCount,
		UnknownCount:     summary.UnknownCount,
		InsufficientData: summary.InsufficientData,
		Grade:            domain.GradeNone,
	}
	if report.Receipts == nil {
		report.Receipts = []domain.ReceiptAnalysis{}
	}

	if summary.InsufficientData {
		return report
	}

	report.Grade = GradeFor(summary.AverageImpact)

	weekly := 0.0
	for _, r := range summary.Matched {
		item := domain.ReportItem{
			MatchRecord:  r,
			EstimatedCO2: float64(r.ImpactScore) * b.co2PerImpactPoint,
		}
		weekly += item.EstimatedCO2
		report.Items = append(report.Items, item)
	}
	report.WeeklyCO2 = round2(weekly)
	report.MonthlyCO2 = round2(report.WeeklyCO2 * b.weeksPerMonth)

	slices.SortStableFunc(report.Items, func(x, y domain.ReportItem) int {
		return cmp.Compare(y.ImpactScore, x.ImpactScore)
	})

	reduction := 0.0
	for _, item := range report.Items {
		if item.ImpactScore < b.aggregator.highImpactThreshold {
			continue
		}
		reduction += item.EstimatedCO2
		report.Suggestions = append(report.Suggestions, domain.Suggestion{
			Product:            item.MatchedProduct,
			ImpactScore:        item.ImpactScore,
			GreenerAlternative: item.GreenerAlternative,
			AlternativeReason:  item.AlternativeReason,
		})
	}
	report.PotentialReduction = round2(reduction)

	return report
}
