package usecase

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/ecoreceipt/backend/internal/domain"
)

// DefaultMatchThreshold is the minimum similarity for a candidate to count as a catalog product
const DefaultMatchThreshold = 75.0

// MatchConfig holds configuration for the matcher
type MatchConfig struct {
	Threshold float64
}

// Matcher maps candidates onto catalog entries by fuzzy similarity.
// It holds no state besides its threshold and is safe for concurrent use.
type Matcher struct {
	threshold float64
}

// NewMatcher creates a new matcher with the given configuration.
// Thresholds that are not a number in (0,100] fall back to the default.
func NewMatcher(config MatchConfig) *Matcher {
	threshold := config.Threshold
	if !(threshold > 0 && threshold <= 100) {
		threshold = DefaultMatchThreshold
	}

	return &Matcher{threshold: threshold}
}

// Threshold returns the inclusive confidence threshold
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// WithThreshold returns a copy of the matcher using threshold, which must lie in [0,100]
func (m *Matcher) WithThreshold(threshold float64) (*Matcher, error) {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 100 {
		return nil, fmt.Errorf("%w: threshold %.2f outside [0,100]", domain.ErrInvalidRequest, threshold)
	}
	return &Matcher{threshold: threshold}, nil
}

// BestMatch finds the highest scoring catalog entry for candidate.
// Ties go to the entry that comes first in catalog order.
func (m *Matcher) BestMatch(candidate string, catalog *domain.Catalog) (domain.CatalogEntry, float64, error) {
	if catalog.Len() == 0 {
		return domain.CatalogEntry{}, 0, domain.ErrEmptyCatalog
	}

	var best domain.CatalogEntry
	highestScore := -1.0 // any score, including 0, beats the initial value

	for _, entry := range catalog.All() {
		score := Similarity(candidate, entry.CanonicalName)
		if score > highestScore {
			highestScore = score
			best = entry
		}
	}

	return best, highestScore, nil
}

// MatchOne matches a single candidate, degrading to a fallback record below the threshold
func (m *Matcher) MatchOne(candidate string, catalog *domain.Catalog) (domain.MatchRecord, error) {
	best, score, err := m.BestMatch(candidate, catalog)
	if err != nil {
		return domain.MatchRecord{}, err
	}

	if score < m.threshold {
		slog.Debug("No catalog match above threshold",
			"candidate", candidate,
			"closest", best.CanonicalName,
			"confidence", score,
			"threshold", m.threshold)
		return unknownRecord(candidate, score), nil
	}

	slog.Debug("Matched candidate",
		"candidate", candidate,
		"product", best.CanonicalName,
		"confidence", score)

	return domain.MatchRecord{
		ItemDetected:       candidate,
		MatchedProduct:     best.CanonicalName,
		Confidence:         score,
		ImpactScore:        best.ImpactScore,
		Category:           best.Category,
		GreenerAlternative: best.GreenerAlternative,
		ImpactReason:       best.ImpactReason,
		AlternativeReason:  best.AlternativeReason,
	}, nil
}

// Match produces exactly one record per candidate, in candidate order.
// An empty catalog is an error even when there are no candidates.
func (m *Matcher) Match(candidates []string, catalog *domain.Catalog) ([]domain.MatchRecord, error) {
	if catalog.Len() == 0 {
		return nil, domain.ErrEmptyCatalog
	}

	records := make([]domain.MatchRecord, 0, len(candidates))
	for _, candidate := range candidates {
		record, err := m.MatchOne(candidate, catalog)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

// unknownRecord builds the fallback record for a candidate without a confident match
func unknownRecord(candidate string, score float64) domain.MatchRecord {
	return domain.MatchRecord{
		ItemDetected:       candidate,
		MatchedProduct:     domain.UnknownProduct,
		Confidence:         score,
		ImpactScore:        domain.UnknownImpactScore,
		Category:           domain.UnknownCategory,
		GreenerAlternative: domain.UnknownGreenerAlternative,
		ImpactReason:       domain.UnknownImpactReason,
		AlternativeReason:  domain.UnknownAlternativeReason,
	}
}
