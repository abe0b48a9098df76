// Package fetcher wraps the content extractor with a bounded retry budget.
package fetcher

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/oddsmith/matchodds/internal/cache"
	"github.com/oddsmith/matchodds/internal/criteria"
	"github.com/oddsmith/matchodds/internal/extractor"
	"github.com/oddsmith/matchodds/internal/metrics"
	"github.com/oddsmith/matchodds/internal/progress"
)

// Config controls the retry policy. The budget applies per logical fetch,
// never per run.
type Config struct {
	MaxAttempts int
	RetryDelay  time.Duration
}

// Retrying issues one extractor call per attempt, up to MaxAttempts, with a
// fixed delay between attempts. On exhaustion it journals an ErrorRecord and
// returns the final failure; it never touches the cache.
type Retrying struct {
	extractor extractor.ContentExtractor
	errorLog  *progress.ErrorLog
	cfg       Config
	sleep     func(context.Context, time.Duration) error
	logger    *zap.Logger
}

// New builds a Retrying fetcher. errorLog may be nil for callers that handle
// failures themselves.
func New(ext extractor.ContentExtractor, errorLog *progress.ErrorLog, cfg Config, logger *zap.Logger) *Retrying {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrying{
		extractor: ext,
		errorLog:  errorLog,
		cfg:       cfg,
		sleep:     sleepCtx,
		logger:    logger,
	}
}

// Fetch runs the bounded retry loop for one combination. A payload with all
// required fields missing counts as an empty-result failure and is retried
// like any other.
func (r *Retrying) Fetch(ctx context.Context, comb criteria.Combination) (cache.Payload, error) {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := r.sleep(ctx, r.cfg.RetryDelay); err != nil {
				return cache.Payload{}, err
			}
		}

		payload, err := r.extractor.Extract(ctx, comb.Params)
		if err == nil && payload.Empty() {
			err = extractor.NewFetchError(extractor.KindEmptyResult, fmt.Errorf("all result fields missing"))
		}
		if err == nil {
			metrics.FetchAttempts.WithLabelValues("success").Inc()
			return payload, nil
		}
		metrics.FetchAttempts.WithLabelValues("failure").Inc()
		lastErr = err
		r.logger.Warn("fetch attempt failed",
			zap.String("combination", comb.ID),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.cfg.MaxAttempts),
			zap.Error(err),
		)
		if ctx.Err() != nil {
			return cache.Payload{}, ctx.Err()
		}
	}

	if r.errorLog != nil {
		record := progress.ErrorRecord{
			Timestamp:     time.Now().UTC(),
			CombinationID: comb.ID,
			Params:        comb.Params,
			Message:       lastErr.Error(),
			Context: map[string]string{
				"attempts": fmt.Sprintf("%d", r.cfg.MaxAttempts),
			},
		}
		if logErr := r.errorLog.Append(record); logErr != nil {
			return cache.Payload{}, fmt.Errorf("journal permanent failure: %w", logErr)
		}
	}
	return cache.Payload{}, fmt.Errorf("fetch %s: attempts exhausted: %w", comb.ID, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
