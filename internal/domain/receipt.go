package domain

import (
	"time"

	"github.com/google/uuid"
)

// UnknownProduct marks a match record whose candidate met no catalog entry
const UnknownProduct = "UNKNOWN"

// Fallback values carried by records that fall below the confidence threshold
const (
	UnknownImpactScore        = 5
	UnknownCategory           = "Unknown"
	UnknownGreenerAlternative = "Research alternatives"
	UnknownImpactReason       = "Environmental impact data not available."
	UnknownAlternativeReason  = "Consider researching sustainable alternatives."
)

// HighImpactScore is the score from which an item counts as high impact
const HighImpactScore = 7

// MatchRecord is the outcome of matching one candidate against the catalog.
// The JSON field names are consumed by the dashboard and exports.
type MatchRecord struct {
	ItemDetected       string  `json:"itemDetected"`
	MatchedProduct     string  `json:"matchedProduct"`
	Confidence         float64 `json:"confidence"` // 0-100
	ImpactScore        int     `json:"impactScore"`
	Category           string  `json:"category"`
	GreenerAlternative string  `json:"greenerAlternative"`
	ImpactReason       string  `json:"impactReason"`
	AlternativeReason  string  `json:"alternativeReason"`
}

// IsUnknown reports whether the record is a fallback record
func (r MatchRecord) IsUnknown() bool {
	return r.MatchedProduct == UnknownProduct
}

// ReportSummary aggregates the measured (non-UNKNOWN) records of a receipt or report
type ReportSummary struct {
	Matched          []MatchRecord `json:"matched"`
	AverageImpact    float64       `json:"averageImpact"`
	HighImpactCount  int           `json:"highImpactCount"`
	HighImpact       []MatchRecord `json:"highImpact"`
	UnknownCount     int           `json:"unknownCount"`
	InsufficientData bool          `json:"insufficientData"`
}

// Document is a receipt as uploaded: an image, a PDF or an OCR text dump
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

// ReceiptAnalysis is the pipeline result for a single receipt
type ReceiptAnalysis struct {
	Source          string        `json:"source"`
	Candidates      []string      `json:"candidates"`
	Records         []MatchRecord `json:"records"`
	Summary         ReportSummary `json:"summary"`
	ExtractionError string        `json:"extractionError,omitempty"`
	Cached          bool          `json:"cached,omitempty"`
}

// Grade is the letter rating derived from the average impact score
type Grade string

const (
	GradeA    Grade = "A"
	GradeB    Grade = "B"
	GradeC    Grade = "C"
	GradeD    Grade = "D"
	GradeNone Grade = "N/A"
)

// ReportItem is one row of the impact breakdown table
type ReportItem struct {
	MatchRecord
	EstimatedCO2 float64 `json:"estimatedCO2"` // kg
}

// Suggestion proposes a greener substitute for a high-impact item
type Suggestion struct {
	Product            string `json:"product"`
	ImpactScore        int    `json:"impactScore"`
	GreenerAlternative string `json:"greenerAlternative"`
	AlternativeReason  string `json:"alternativeReason"`
}

// ImpactReport combines one or more receipts into the dashboard view
type ImpactReport struct {
	ID                 uuid.UUID         `json:"id"`
	GeneratedAt        time.Time         `json:"generatedAt"`
	Receipts           []ReceiptAnalysis `json:"receipts"`
	Items              []ReportItem      `json:"items"`
	AverageImpact      float64           `json:"averageImpact"`
	HighImpactCount    int               `json:"highImpactCount"`
	Grade              Grade             `json:"grade"`
	WeeklyCO2          float64           `json:"weeklyCO2"`
	MonthlyCO2         float64           `json:"monthlyCO2"`
	PotentialReduction float64           `json:"potentialReduction"`
	Suggestions        []Suggestion      `json:"suggestions"`
	UnknownCount       int               `json:"unknownCount"`
	InsufficientData   bool              `json:"insufficientData"`
}
