package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/oddsmith/matchodds/internal/cache"
	"github.com/oddsmith/matchodds/internal/clock"
	"github.com/oddsmith/matchodds/internal/config"
	"github.com/oddsmith/matchodds/internal/extractor"
	"github.com/oddsmith/matchodds/internal/fetcher"
	"github.com/oddsmith/matchodds/internal/progress"
)

// core bundles the collaborators shared by the serve, harvest and test
// commands.
type core struct {
	store     *cache.Store
	fetcher   *fetcher.Retrying
	extractor *extractor.Chromedp
	errorLog  *progress.ErrorLog
}

func (c *core) close() {
	if c.extractor != nil {
		c.extractor.Close()
	}
}

func buildCore(cfg config.Config, logger *zap.Logger) (*core, error) {
	store, err := cache.Open(cfg.Cache.Path, clock.System{}, logger)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	ext, err := extractor.NewChromedp(extractor.Config{
		TargetURL:      cfg.Extractor.TargetURL,
		UserAgent:      cfg.Extractor.UserAgent,
		NavTimeout:     cfg.NavTimeout(),
		TargetQPS:      cfg.Extractor.TargetQPS,
		ResultSelector: cfg.Extractor.ResultSelector,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init extractor: %w", err)
	}

	errorLog := progress.NewErrorLog(cfg.Progress.ErrorLogPath)
	f := fetcher.New(ext, errorLog, fetcher.Config{
		MaxAttempts: cfg.Fetch.MaxAttempts,
		RetryDelay:  cfg.RetryDelay(),
	}, logger)

	return &core{
		store:     store,
		fetcher:   f,
		extractor: ext,
		errorLog:  errorLog,
	}, nil
}
