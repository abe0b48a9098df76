package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oddsmith/matchodds/internal/criteria"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.now = f.now.Add(time.Second)
	return f.now
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.json")
	s, err := Open(path, &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}, zap.NewNop())
	require.NoError(t, err)
	return s, path
}

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)

	n := criteria.Defaults()
	fp := criteria.Fingerprint(n)
	payload := Payload{Probability: 3.7, ScoreLabel: "Unicorn Hunter", ScoreFraction: "1 in 27"}

	_, ok := s.Get(fp)
	require.False(t, ok)

	require.NoError(t, s.Put(fp, n, payload))
	entry, ok := s.Get(fp)
	require.True(t, ok)
	assert.Equal(t, payload, entry.Payload)
	assert.Equal(t, n, entry.Criteria)
	assert.Equal(t, 1, entry.AccessCount)
}

func TestStore_TouchIncrementsAccessCount(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)

	fp := criteria.Fingerprint(criteria.Defaults())
	require.NoError(t, s.Put(fp, criteria.Defaults(), Payload{ScoreLabel: "ok"}))

	require.NoError(t, s.Touch(fp))
	require.NoError(t, s.Touch(fp))

	entry, ok := s.Get(fp)
	require.True(t, ok)
	assert.Equal(t, 3, entry.AccessCount)
	assert.True(t, entry.LastAccessedAt.After(entry.CreatedAt))
}

func TestStore_TouchMissingIsNoop(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	require.NoError(t, s.Touch("no-such-fingerprint"))
	assert.Zero(t, s.Len())
}

func TestStore_GetIsPure(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	fp := criteria.Fingerprint(criteria.Defaults())
	require.NoError(t, s.Put(fp, criteria.Defaults(), Payload{ScoreLabel: "ok"}))

	for range 5 {
		_, _ = s.Get(fp)
	}
	entry, _ := s.Get(fp)
	assert.Equal(t, 1, entry.AccessCount)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()
	s, path := newTestStore(t)
	n := criteria.Defaults()
	fp := criteria.Fingerprint(n)
	require.NoError(t, s.Put(fp, n, Payload{Probability: 12.5, ScoreLabel: "Realistic"}))

	reopened, err := Open(path, &fakeClock{now: time.Now()}, zap.NewNop())
	require.NoError(t, err)
	entry, ok := reopened.Get(fp)
	require.True(t, ok)
	assert.Equal(t, 12.5, entry.Payload.Probability)
	assert.Equal(t, 1, entry.AccessCount)
}

func TestStore_ClearRemovesBackingFile(t *testing.T) {
	t.Parallel()
	s, path := newTestStore(t)
	fp := criteria.Fingerprint(criteria.Defaults())
	require.NoError(t, s.Put(fp, criteria.Defaults(), Payload{ScoreLabel: "ok"}))
	require.FileExists(t, path)

	require.NoError(t, s.Clear())
	assert.Zero(t, s.Len())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestStore_SnapshotIsSorted(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	for _, age := range []int{25, 26, 27} {
		n := criteria.Defaults()
		n.MinAge = age
		require.NoError(t, s.Put(criteria.Fingerprint(n), n, Payload{ScoreLabel: "ok"}))
	}
	keys, entries := s.Snapshot()
	require.Len(t, keys, 3)
	require.Len(t, entries, 3)
	assert.IsNonDecreasing(t, keys)
}
