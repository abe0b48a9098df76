package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oddsmith/matchodds/internal/cache"
	"github.com/oddsmith/matchodds/internal/clock"
	"github.com/oddsmith/matchodds/internal/export"
)

func newExportCmd() *cobra.Command {
	var (
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Flatten the cache into a tabular artifact",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, format, out)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or csv")
	cmd.Flags().StringVar(&out, "out", "", "output file (default stdout)")
	return cmd
}

func runExport(cmd *cobra.Command, format, out string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, err := cache.Open(cfg.Cache.Path, clock.System{}, zap.NewNop())
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	switch format {
	case "json":
		return export.JSON(w, store)
	case "csv":
		return export.CSV(w, store)
	default:
		return fmt.Errorf("unknown format %q (want json or csv)", format)
	}
}
