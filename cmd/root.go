// Package cmd defines the CLI commands for the matchodds executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oddsmith/matchodds/internal/config"
	"github.com/oddsmith/matchodds/internal/logging"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "matchodds",
		Short: "Fingerprint-cached harvester for the match odds calculator",
		Long: `matchodds caches parameterized results from the external odds calculator
so repeated requests for equivalent parameters avoid refetching. It runs either
as an on-demand HTTP service or as an offline harvester that exhaustively
enumerates the parameter space under rate limiting.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")

	cmd.AddCommand(
		newServeCmd(),
		newHarvestCmd(),
		newStatsCmd(),
		newExportCmd(),
		newTestCmd(),
		newClearCmd(),
	)
	return cmd
}

// setup loads configuration and builds the logger shared by all commands.
func setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
