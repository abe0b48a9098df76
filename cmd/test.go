package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oddsmith/matchodds/internal/criteria"
)

func newTestCmd() *cobra.Command {
	var (
		minAge         int
		maxAge         int
		race           string
		minHeight      string
		minIncome      int
		excludeMarried bool
		excludeObese   bool
	)
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Perform a single lookup with example parameters",
		Long: `Runs one lookup through the full on-demand path: normalize, check the
cache, fetch on a miss and cache the result. Useful for verifying connectivity
and extraction before starting a harvest.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw := map[string]any{
				"minAge":         minAge,
				"maxAge":         maxAge,
				"race":           race,
				"minHeight":      minHeight,
				"minIncome":      minIncome,
				"excludeMarried": excludeMarried,
				"excludeObese":   excludeObese,
			}
			return runTestLookup(cmd, raw)
		},
	}
	cmd.Flags().IntVar(&minAge, "min-age", criteria.DefaultMinAge, "minimum age")
	cmd.Flags().IntVar(&maxAge, "max-age", criteria.DefaultMaxAge, "maximum age")
	cmd.Flags().StringVar(&race, "race", "any", "race filter (any, white, black, asian or 0-3)")
	cmd.Flags().StringVar(&minHeight, "min-height", "any", "minimum height in cm or 'any'")
	cmd.Flags().IntVar(&minIncome, "min-income", 0, "minimum income")
	cmd.Flags().BoolVar(&excludeMarried, "exclude-married", false, "exclude married")
	cmd.Flags().BoolVar(&excludeObese, "exclude-obese", false, "exclude obese")
	return cmd
}

func runTestLookup(cmd *cobra.Command, raw map[string]any) error {
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

	params := criteria.Normalize(raw)
	fp := criteria.Fingerprint(params)

	fromCache := false
	entry, hit := deps.store.Get(fp)
	if hit {
		fromCache = true
		if err := deps.store.Touch(fp); err != nil {
			return err
		}
	} else {
		payload, err := deps.fetcher.Fetch(cmd.Context(), criteria.NewCombination(params))
		if err != nil {
			return fmt.Errorf("lookup: %w", err)
		}
		if err := deps.store.Put(fp, params, payload); err != nil {
			return err
		}
		entry, _ = deps.store.Get(fp)
	}

	out := map[string]any{
		"criteria":  params,
		"cacheKey":  fp,
		"fromCache": fromCache,
		"result":    entry.Payload,
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
