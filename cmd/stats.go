package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oddsmith/matchodds/internal/cache"
	"github.com/oddsmith/matchodds/internal/clock"
	"github.com/oddsmith/matchodds/internal/progress"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Report harvest checkpoint and cache statistics",
		RunE:  runStats,
	}
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, err := cache.Open(cfg.Cache.Path, clock.System{}, zap.NewNop())
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}

	cp, found, err := progress.NewCheckpointStore(cfg.Progress.CheckpointPath).Load()
	if err != nil {
		return err
	}
	errorCount, err := progress.NewErrorLog(cfg.Progress.ErrorLogPath).Count()
	if err != nil {
		return err
	}

	entries := store.Len()
	accesses := store.TotalAccesses()
	hits := accesses - entries
	if hits < 0 {
		hits = 0
	}
	hitRate := 0.0
	if accesses > 0 {
		hitRate = float64(hits) / float64(accesses)
	}

	out := map[string]any{
		"cacheEntries":  entries,
		"totalAccesses": accesses,
		"hitRate":       hitRate,
		"errorCount":    errorCount,
	}
	if found {
		out["checkpoint"] = cp
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	return nil
}
