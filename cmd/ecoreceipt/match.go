package main

import (
	"github.com/spf13/cobra"

	"github.com/ecoreceipt/backend/internal/bootstrap"
	"github.com/ecoreceipt/backend/internal/delivery/cli"
	"github.com/ecoreceipt/backend/internal/domain"
	"github.com/ecoreceipt/backend/internal/infrastructure/catalog"
	"github.com/ecoreceipt/backend/internal/usecase"
)

func matchCmd(opts *rootOptions) *cobra.Command {
	var threshold float64

	cmd := &cobra.Command{
		Use:   "match CANDIDATE...",
		Short: "Match candidate item names against the catalog",
		Long:  "Match each CANDIDATE against the catalog. Candidates are uppercased and whitespace-collapsed first, like catalog names.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := catalog.LoadFile(opts.cfg.Catalog.Path)
			if err != nil {
				return err
			}

			matcher := usecase.NewMatcher(bootstrap.ServiceConfig(opts.cfg).Match)
			if cmd.Flags().Changed("threshold") {
				if matcher, err = matcher.WithThreshold(threshold); err != nil {
					return err
				}
			}

			candidates := make([]string, len(args))
			for i, arg := range args {
				candidates[i] = domain.CanonicalName(arg)
			}

			records, err := matcher.Match(candidates, products)
			if err != nil {
				return err
			}
			return cli.WriteRecords(cmd.OutOrStdout(), records)
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", 0, "match confidence threshold 0-100 (default from config)")
	return cmd
}
