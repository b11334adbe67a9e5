package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"

	"github.com/ecoreceipt/backend/internal/domain"
)

// Progress reports per-receipt completion of a batch analysis.
type Progress struct {
	bar    *progressbar.ProgressBar
	writer io.Writer
	failed int
}

// NewProgress creates a progress bar for total receipts writing to w.
func NewProgress(w io.Writer, total int) *Progress {
	p := &Progress{writer: w}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[green][bold]Analyzing receipts...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return p
}

// Done advances the bar by one receipt. Its signature matches the batch callback.
func (p *Progress) Done(_ int, analysis *domain.ReceiptAnalysis) {
	if analysis != nil && analysis.ExtractionError != "" {
		p.failed++
	}
	if err := p.bar.Add(1); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// Failed returns how many finished receipts could not be read.
func (p *Progress) Failed() int {
	return p.failed
}

// Finished reports whether every receipt has been counted.
func (p *Progress) Finished() bool {
	return p.bar.IsFinished()
}
