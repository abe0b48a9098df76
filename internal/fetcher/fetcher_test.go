package fetcher

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oddsmith/matchodds/internal/cache"
	"github.com/oddsmith/matchodds/internal/criteria"
	"github.com/oddsmith/matchodds/internal/extractor"
	"github.com/oddsmith/matchodds/internal/progress"
)

func noSleep(_ context.Context, _ time.Duration) error { return nil }

func newTestFetcher(t *testing.T, stub *extractor.Stub, maxAttempts int) (*Retrying, *progress.ErrorLog) {
	t.Helper()
	errorLog := progress.NewErrorLog(filepath.Join(t.TempDir(), "errors.json"))
	f := New(stub, errorLog, Config{MaxAttempts: maxAttempts, RetryDelay: time.Millisecond}, zap.NewNop())
	f.sleep = noSleep
	return f, errorLog
}

func TestRetrying_SucceedsFirstAttempt(t *testing.T) {
	t.Parallel()
	stub := &extractor.Stub{Payload: cache.Payload{Probability: 5, ScoreLabel: "ok"}}
	f, errorLog := newTestFetcher(t, stub, 3)

	payload, err := f.Fetch(context.Background(), criteria.NewCombination(criteria.Defaults()))
	require.NoError(t, err)
	assert.Equal(t, "ok", payload.ScoreLabel)
	assert.Equal(t, 1, stub.Calls)

	count, err := errorLog.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRetrying_RecoversWithinBudget(t *testing.T) {
	t.Parallel()
	stub := &extractor.Stub{
		Payload:   cache.Payload{ScoreLabel: "eventually"},
		Err:       extractor.NewFetchError(extractor.KindNavigation, assert.AnError),
		FailFirst: 2,
	}
	f, _ := newTestFetcher(t, stub, 3)

	payload, err := f.Fetch(context.Background(), criteria.NewCombination(criteria.Defaults()))
	require.NoError(t, err)
	assert.Equal(t, "eventually", payload.ScoreLabel)
	assert.Equal(t, 3, stub.Calls)
}

func TestRetrying_ExhaustsAtExactlyMaxAttempts(t *testing.T) {
	t.Parallel()
	stub := &extractor.Stub{Err: extractor.NewFetchError(extractor.KindTimeout, assert.AnError)}
	f, errorLog := newTestFetcher(t, stub, 3)

	comb := criteria.NewCombination(criteria.Defaults())
	_, err := f.Fetch(context.Background(), comb)
	require.Error(t, err)
	assert.Equal(t, 3, stub.Calls)

	var fetchErr *extractor.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, extractor.KindTimeout, fetchErr.Kind)

	records, recErr := errorLog.Records()
	require.NoError(t, recErr)
	require.Len(t, records, 1)
	assert.Equal(t, comb.ID, records[0].CombinationID)
	assert.Equal(t, "3", records[0].Context["attempts"])
}

func TestRetrying_EmptyPayloadIsRetryable(t *testing.T) {
	t.Parallel()
	stub := &extractor.Stub{Payload: cache.Payload{}}
	f, errorLog := newTestFetcher(t, stub, 2)

	_, err := f.Fetch(context.Background(), criteria.NewCombination(criteria.Defaults()))
	require.Error(t, err)
	assert.Equal(t, 2, stub.Calls)

	var fetchErr *extractor.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, extractor.KindEmptyResult, fetchErr.Kind)

	count, countErr := errorLog.Count()
	require.NoError(t, countErr)
	assert.Equal(t, 1, count)
}

func TestRetrying_ContextCancelStopsRetries(t *testing.T) {
	t.Parallel()
	stub := &extractor.Stub{Err: extractor.NewFetchError(extractor.KindNavigation, assert.AnError)}
	f, _ := newTestFetcher(t, stub, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Fetch(ctx, criteria.NewCombination(criteria.Defaults()))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, stub.Calls)
}
