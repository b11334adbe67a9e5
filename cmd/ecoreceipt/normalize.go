package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ecoreceipt/backend/internal/bootstrap"
	"github.com/ecoreceipt/backend/internal/usecase"
)

func normalizeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize [FILE|-]",
		Short: "Print the product candidates found in receipt text",
		Long:  "Read OCR text from FILE, or stdin when FILE is - or missing, and print one candidate per line.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				text []byte
				err  error
			)
			if len(args) == 0 || args[0] == "-" {
				text, err = io.ReadAll(cmd.InOrStdin())
			} else {
				text, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read receipt text: %w", err)
			}

			normalizer := usecase.NewLineNormalizer(bootstrap.ServiceConfig(opts.cfg).Normalizer)

			out := cmd.OutOrStdout()
			for candidate := range normalizer.Candidates(string(text)) {
				fmt.Fprintln(out, candidate)
			}
			return nil
		},
	}
}
