package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oddsmith/matchodds/internal/clock"
	"github.com/oddsmith/matchodds/internal/harvest"
	"github.com/oddsmith/matchodds/internal/progress"
)

func newHarvestCmd() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Run or resume the batch harvester",
		Long: `Enumerates the full combinatorial parameter space and fills the cache in
resumable, throttled batches. Interrupting the run loses at most the single
in-flight combination; re-running resumes at the persisted checkpoint and
skips everything already cached.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHarvest(cmd, reset)
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "discard the existing checkpoint and start over")
	return cmd
}

func runHarvest(cmd *cobra.Command, reset bool) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	deps, err := buildCore(cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close()

	checkpoints := progress.NewCheckpointStore(cfg.Progress.CheckpointPath)
	if reset {
		if err := checkpoints.Reset(); err != nil {
			return err
		}
		logger.Info("checkpoint reset")
	}

	runner := harvest.NewRunner(
		cfg.HarvestGrids(),
		deps.store,
		deps.fetcher,
		checkpoints,
		harvest.Config{
			BatchSize:  cfg.Harvest.BatchSize,
			ItemDelay:  cfg.ItemDelay(),
			BatchDelay: cfg.BatchDelay(),
		},
		clock.System{},
		logger,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := runner.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("harvest: %w", err)
	}

	logger.Info("harvest report",
		zap.Int("total", report.Total),
		zap.Int("processed", report.Processed),
		zap.Int("success", report.Success),
		zap.Int("errors", report.Errors),
		zap.Int("skipped", report.Skipped),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "processed %d/%d (success %d, errors %d, skipped %d)\n",
		report.Processed, report.Total, report.Success, report.Errors, report.Skipped)
	return nil
}
