package usecase

import (
	"math"

	"github.com/ecoreceipt/backend/internal/domain"
)

// AggregatorConfig holds configuration for the aggregator
type AggregatorConfig struct {
	HighImpactThreshold int
}

// Aggregator summarizes match records for scoring.
// UNKNOWN records are unmeasured, not verified-low, so they never count toward scores.
type Aggregator struct {
	highImpactThreshold int
}

// NewAggregator creates a new aggregator with the given configuration
func NewAggregator(config AggregatorConfig) *Aggregator {
	threshold := config.HighImpactThreshold
	if threshold <= 0 {
		threshold = domain.HighImpactScore
	}
	return &Aggregator{highImpactThreshold: threshold}
}

// Summarize filters out UNKNOWN records and computes the average impact (2 dp)
// and high-impact count over the rest. With nothing measured it returns a zero
// summary flagged as insufficient data.
func (a *Aggregator) Summarize(records []domain.MatchRecord) domain.ReportSummary {
	summary := domain.ReportSummary{
		Matched:    []domain.MatchRecord{},
		HighImpact: []domain.MatchRecord{},
	}

	total := 0
	for _, r := range records {
		if r.IsUnknown() {
			summary.UnknownCount++
			continue
		}
		summary.Matched = append(summary.Matched, r)
		total += r.ImpactScore
		if r.ImpactScore >= a.highImpactThreshold {
			summary.HighImpact = append(summary.HighImpact, r)
		}
	}

	summary.HighImpactCount = len(summary.HighImpact)
	if len(summary.Matched) == 0 {
		summary.InsufficientData = true
		return summary
	}

	summary.AverageImpact = round2(float64(total) / float64(len(summary.Matched)))
	return summary
}

// round2 rounds to two decimal places
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
