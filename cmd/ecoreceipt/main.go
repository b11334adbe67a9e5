package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ecoreceipt/backend/config"
	"github.com/ecoreceipt/backend/internal/infrastructure/logging"
)

var version = "dev"

// rootOptions holds the persistent flags and the config they produce
type rootOptions struct {
	cfgFile   string
	logLevel  string
	logFormat string
	catalog   string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "ecoreceipt",
		Short: "🌿 Grocery receipt environmental impact analyzer",
		Long: `ecoreceipt reads grocery receipts (images, PDFs or OCR text), matches the
purchased items against a product impact catalog and reports an eco grade,
estimated CO2 and greener alternatives.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.init(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default: ./config.yaml, ./config/config.yaml or /etc/ecoreceipt/config.yaml)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format (console, json)")
	flags.StringVar(&opts.catalog, "catalog", "", "product catalog file (.csv or .xlsx)")

	cmd.AddCommand(analyzeCmd(opts))
	cmd.AddCommand(normalizeCmd(opts))
	cmd.AddCommand(matchCmd(opts))
	cmd.AddCommand(catalogCmd(opts))
	cmd.AddCommand(versionCmd())

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (o *rootOptions) init(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if o.cfgFile != "" {
		cfg, err = config.LoadFile(o.cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}
	if o.catalog != "" {
		cfg.Catalog.Path = o.catalog
	}

	// Logs go to stderr so stdout stays clean for JSON and piping
	if err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr()); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	o.cfg = cfg
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			slog.Debug("Printing version")
			fmt.Fprintf(cmd.OutOrStdout(), "ecoreceipt %s\n", version)
		},
	}
}
