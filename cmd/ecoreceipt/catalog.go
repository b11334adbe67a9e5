package main

import (
	"github.com/spf13/cobra"

	"github.com/ecoreceipt/backend/internal/delivery/cli"
	"github.com/ecoreceipt/backend/internal/infrastructure/catalog"
)

func catalogCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the product catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			products, err := catalog.LoadFile(opts.cfg.Catalog.Path)
			if err != nil {
				return err
			}
			return cli.WriteCatalog(cmd.OutOrStdout(), products)
		},
	}
}
