package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oddsmith/matchodds/internal/cache"
	"github.com/oddsmith/matchodds/internal/clock"
	"github.com/oddsmith/matchodds/internal/progress"
)

func newClearCmd() *cobra.Command {
	var keepCheckpoint bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cache and discard the harvest checkpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClear(cmd, keepCheckpoint)
		},
	}
	cmd.Flags().BoolVar(&keepCheckpoint, "keep-checkpoint", false, "leave the harvest checkpoint in place")
	return cmd
}

func runClear(cmd *cobra.Command, keepCheckpoint bool) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, err := cache.Open(cfg.Cache.Path, clock.System{}, zap.NewNop())
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	if err := store.Clear(); err != nil {
		return err
	}
	if !keepCheckpoint {
		if err := progress.NewCheckpointStore(cfg.Progress.CheckpointPath).Reset(); err != nil {
			return err
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
	return nil
}
