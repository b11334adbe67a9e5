package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ecoreceipt/backend/internal/bootstrap"
	"github.com/ecoreceipt/backend/internal/delivery/cli"
	"github.com/ecoreceipt/backend/internal/domain"
	"github.com/ecoreceipt/backend/internal/infrastructure/export"
)

func analyzeCmd(opts *rootOptions) *cobra.Command {
	var (
		threshold  float64
		exportPath string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "analyze FILE...",
		Short: "Analyze receipts and print an impact dashboard",
		Long: `Analyze one or more receipts (images, PDFs or OCR text dumps) and combine
them into a single impact report.

Images need an OCR API key (ocr.api_key / ECORECEIPT_OCR_API_KEY); receipts
that cannot be read are reported and count as empty.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := readDocuments(args)
			if err != nil {
				return err
			}

			app, err := bootstrap.New(opts.cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			receipts := app.Receipts
			if cmd.Flags().Changed("threshold") {
				if receipts, err = receipts.WithThreshold(threshold); err != nil {
					return err
				}
			}

			progress := cli.NewProgress(cmd.ErrOrStderr(), len(docs))
			report, err := receipts.AnalyzeBatch(cmd.Context(), docs, progress.Done)
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}
			if progress.Failed() > 0 {
				slog.Warn("Some receipts could not be read", "failed", progress.Failed(), "total", len(docs))
			}

			if exportPath != "" {
				if err := export.WriteFile(exportPath, report); err != nil {
					return err
				}
				slog.Info("Exported report", "path", exportPath)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			fmt.Fprintln(out, cli.RenderReport(report))
			return nil
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", 0, "match confidence threshold 0-100 (default from config)")
	cmd.Flags().StringVar(&exportPath, "export", "", "write the breakdown to PATH (.csv or .xlsx)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	return cmd
}

func readDocuments(paths []string) ([]domain.Document, error) {
	docs := make([]domain.Document, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read receipt: %w", err)
		}
		docs = append(docs, domain.Document{
			Name: filepath.Base(path),
			Data: data,
		})
	}
	return docs, nil
}
