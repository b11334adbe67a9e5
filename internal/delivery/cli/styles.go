// Package cli renders impact reports and progress for the terminal using lipgloss.
package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ecoreceipt/backend/internal/domain"
)

var (
	// PrimaryColor is the main theme color (leaf green).
	PrimaryColor = lipgloss.Color("#2ECC71")
	// SuccessColor marks low-impact results.
	SuccessColor = lipgloss.Color("#4ECDC4")
	// WarningColor marks moderate results.
	WarningColor = lipgloss.Color("#FFE66D")
	// ErrorColor marks high-impact results and failures.
	ErrorColor = lipgloss.Color("#FF6B6B")
	// SubtleColor is used for less prominent text.
	SubtleColor = lipgloss.Color("#666666")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// SuccessStyle formats good results.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle formats warnings.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle formats errors and high-impact values.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// BoldStyle makes text bold.
	BoldStyle = lipgloss.NewStyle().
			Bold(true)

	// BoxStyle is used for bordered content boxes.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(SubtleColor).
			Padding(0, 1)

	// HeaderStyle is used for table headers.
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))
)

// Icons.
const (
	LeafIcon    = "🌿"
	WarningIcon = "⚠️"
	ErrorIcon   = "✗"
	ChartIcon   = "📊"
	SwapIcon    = "🔄"
)

// FormatTitle formats a title with the leaf icon.
func FormatTitle(title string) string {
	return TitleStyle.Render(LeafIcon + " " + title)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// GradeColor picks the card color for a grade.
func GradeColor(grade domain.Grade) lipgloss.Color {
	switch grade {
	case domain.GradeA:
		return PrimaryColor
	case domain.GradeB:
		return SuccessColor
	case domain.GradeC:
		return WarningColor
	case domain.GradeD:
		return ErrorColor
	default:
		return SubtleColor
	}
}

// ScoreStyle colors an impact score: ≥7 high, ≥4 moderate, otherwise low.
func ScoreStyle(score int) lipgloss.Style {
	switch {
	case score >= domain.HighImpactScore:
		return ErrorStyle
	case score >= 4:
		return WarningStyle
	default:
		return SuccessStyle
	}
}
