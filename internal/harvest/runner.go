package harvest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oddsmith/matchodds/internal/cache"
	"github.com/oddsmith/matchodds/internal/clock"
	"github.com/oddsmith/matchodds/internal/criteria"
	"github.com/oddsmith/matchodds/internal/extractor"
	"github.com/oddsmith/matchodds/internal/metrics"
	"github.com/oddsmith/matchodds/internal/progress"
)

// Fetcher is the retrying fetch dependency of the runner.
type Fetcher interface {
	Fetch(ctx context.Context, comb criteria.Combination) (cache.Payload, error)
}

// Config throttles the traversal.
type Config struct {
	BatchSize  int
	ItemDelay  time.Duration
	BatchDelay time.Duration
}

// Report summarizes a finished (or aborted) run.
type Report struct {
	Total     int
	Processed int
	Success   int
	Errors    int
	Skipped   int
}

// Runner drives the resumable traversal: one combination at a time, cache
// hits skipped, the checkpoint rewritten after every item. Single-threaded by
// design; no concurrent fetches are dispatched.
type Runner struct {
	grids       Grids
	store       *cache.Store
	fetcher     Fetcher
	checkpoints *progress.CheckpointStore
	cfg         Config
	clock       clock.Clock
	sleep       func(context.Context, time.Duration) error
	logger      *zap.Logger
}

// NewRunner wires the runner's collaborators.
func NewRunner(
	grids Grids,
	store *cache.Store,
	fetcher Fetcher,
	checkpoints *progress.CheckpointStore,
	cfg Config,
	clk clock.Clock,
	logger *zap.Logger,
) *Runner {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		grids:       grids,
		store:       store,
		fetcher:     fetcher,
		checkpoints: checkpoints,
		cfg:         cfg,
		clock:       clk,
		sleep:       sleepCtx,
		logger:      logger,
	}
}

// Run resumes (or starts) the traversal. Re-invoking it against a partially
// or fully populated cache refetches nothing already cached. Permanent fetch
// failures are counted and journaled without halting the run; persistence
// failures abort it.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	space := r.grids.Space()

	cp, found, err := r.checkpoints.Load()
	if err != nil {
		return Report{}, err
	}
	if !found {
		cp = progress.Checkpoint{
			RunID:             uuid.NewString(),
			TotalCombinations: len(space),
			StartTime:         r.clock.Now(),
		}
		if err := r.checkpoints.Save(cp); err != nil {
			return Report{}, err
		}
	} else if cp.TotalCombinations != len(space) {
		return Report{}, fmt.Errorf(
			"checkpoint covers %d combinations but current grids produce %d; reset before harvesting",
			cp.TotalCombinations, len(space),
		)
	}

	r.logger.Info("harvest starting",
		zap.String("run_id", cp.RunID),
		zap.Int("total", len(space)),
		zap.Int("resume_index", cp.CurrentIndex),
	)

	report := Report{Total: len(space)}
	processedThisRun := 0

	for idx := cp.CurrentIndex; idx < len(space); idx++ {
		if ctx.Err() != nil {
			return r.finish(report, cp), ctx.Err()
		}

		comb := space[idx]
		fp := criteria.Fingerprint(comb.Params)

		if _, hit := r.store.Get(fp); hit {
			cp.SuccessCount++
			report.Skipped++
			metrics.HarvestSkips.Inc()
		} else {
			payload, fetchErr := r.fetcher.Fetch(ctx, comb)
			switch {
			case fetchErr == nil:
				if putErr := r.store.Put(fp, comb.Params, payload); putErr != nil {
					return r.finish(report, cp), fmt.Errorf("persist result: %w", putErr)
				}
				cp.SuccessCount++
			case isPermanent(fetchErr):
				cp.ErrorCount++
				r.logger.Warn("combination failed permanently",
					zap.String("combination", comb.ID),
					zap.Error(fetchErr),
				)
			default:
				// Context cancellation or a persistence failure inside the
				// fetcher; the in-flight item is lost, committed state is not.
				return r.finish(report, cp), fetchErr
			}
		}

		cp.ProcessedCount++
		cp.CurrentIndex = idx + 1
		cp.LastProcessedAt = r.clock.Now()
		if err := r.checkpoints.Save(cp); err != nil {
			return r.finish(report, cp), fmt.Errorf("persist checkpoint: %w", err)
		}
		report.Processed++
		processedThisRun++
		metrics.HarvestProcessed.Inc()

		if idx+1 == len(space) {
			break
		}
		if err := r.throttle(ctx, processedThisRun); err != nil {
			return r.finish(report, cp), err
		}
	}

	r.logger.Info("harvest finished",
		zap.String("run_id", cp.RunID),
		zap.Int("processed", report.Processed),
		zap.Int("success", cp.SuccessCount),
		zap.Int("errors", cp.ErrorCount),
	)
	return r.finish(report, cp), nil
}

func (r *Runner) finish(report Report, cp progress.Checkpoint) Report {
	report.Success = cp.SuccessCount
	report.Errors = cp.ErrorCount
	return report
}

// throttle waits the inter-item delay, or the longer inter-batch delay after
// each full batch.
func (r *Runner) throttle(ctx context.Context, processedThisRun int) error {
	delay := r.cfg.ItemDelay
	if processedThisRun%r.cfg.BatchSize == 0 {
		delay = r.cfg.BatchDelay
	}
	if delay <= 0 {
		return nil
	}
	return r.sleep(ctx, delay)
}

// isPermanent reports whether the fetch error is an exhausted retry budget
// (as opposed to cancellation or a persistence failure inside the fetcher).
func isPermanent(err error) bool {
	var fetchErr *extractor.FetchError
	return errors.As(err, &fetchErr)
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
