package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oddsmith/matchodds/internal/cache"
	"github.com/oddsmith/matchodds/internal/config"
	"github.com/oddsmith/matchodds/internal/extractor"
	"github.com/oddsmith/matchodds/internal/fetcher"
	"github.com/oddsmith/matchodds/internal/progress"
)

type tickingClock struct{ now time.Time }

func (c *tickingClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestServer(t *testing.T, stub *extractor.Stub) *Server {
	t.Helper()
	dir := t.TempDir()
	store, err := cache.Open(filepath.Join(dir, "results.json"),
		&tickingClock{now: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)}, zap.NewNop())
	require.NoError(t, err)

	errorLog := progress.NewErrorLog(filepath.Join(dir, "errors.json"))
	f := fetcher.New(stub, errorLog, fetcher.Config{MaxAttempts: 2, RetryDelay: time.Millisecond}, zap.NewNop())

	cfg, err := config.Load("")
	require.NoError(t, err)
	return NewServer(store, f, cfg, zap.NewNop())
}

func postOdds(t *testing.T, s *Server, body map[string]any) (*httptest.ResponseRecorder, oddsEnvelope) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/odds", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var envelope oddsEnvelope
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	}
	return rec, envelope
}

func TestLookupOdds_MissThenHit(t *testing.T) {
	t.Parallel()
	stub := &extractor.Stub{Payload: cache.Payload{Probability: 4.2, ScoreLabel: "Ambitious"}}
	s := newTestServer(t, stub)

	body := map[string]any{"minAge": 25, "maxAge": 35, "race": "white"}

	rec, first := postOdds(t, s, body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, first.FromCache)
	assert.Equal(t, 1, first.AccessCount)
	assert.NotEmpty(t, first.CacheKey)
	assert.Equal(t, 4.2, first.Result.Probability)

	rec, second := postOdds(t, s, body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, second.FromCache)
	assert.Equal(t, 2, second.AccessCount)
	assert.Equal(t, first.CacheKey, second.CacheKey)
	assert.Equal(t, first.CachedAt, second.CachedAt)

	// Only the first request reached the extractor.
	assert.Equal(t, 1, stub.Calls)
}

func TestLookupOdds_EquivalentRepresentationsShareEntry(t *testing.T) {
	t.Parallel()
	stub := &extractor.Stub{Payload: cache.Payload{ScoreLabel: "ok"}}
	s := newTestServer(t, stub)

	_, first := postOdds(t, s, map[string]any{"race": "WHITE", "minHeight": "any"})
	_, second := postOdds(t, s, map[string]any{"race": 1, "minHeight": 0})

	assert.Equal(t, first.CacheKey, second.CacheKey)
	assert.True(t, second.FromCache)
	assert.Equal(t, 1, stub.Calls)
}

func TestLookupOdds_FetchFailure(t *testing.T) {
	t.Parallel()
	stub := &extractor.Stub{Err: extractor.NewFetchError(extractor.KindTimeout, assert.AnError)}
	s := newTestServer(t, stub)

	rec, _ := postOdds(t, s, map[string]any{"minAge": 25})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "timeout")
}

func TestLookupOdds_InvalidJSON(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &extractor.Stub{})
	req := httptest.NewRequest(http.MethodPost, "/v1/odds", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCacheStats(t *testing.T) {
	t.Parallel()
	stub := &extractor.Stub{Payload: cache.Payload{ScoreLabel: "ok"}}
	s := newTestServer(t, stub)

	body := map[string]any{"minAge": 25, "maxAge": 30}
	postOdds(t, s, body)
	postOdds(t, s, body)
	postOdds(t, s, body)

	req := httptest.NewRequest(http.MethodGet, "/v1/cache/stats", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.EqualValues(t, 1, stats["entries"])
	assert.EqualValues(t, 3, stats["totalAccesses"])
	assert.EqualValues(t, 2, stats["hits"])
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &extractor.Stub{})
	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestAPIKeyMiddleware(t *testing.T) {
	t.Parallel()
	stub := &extractor.Stub{Payload: cache.Payload{ScoreLabel: "ok"}}

	dir := t.TempDir()
	store, err := cache.Open(filepath.Join(dir, "results.json"),
		&tickingClock{now: time.Now().UTC()}, zap.NewNop())
	require.NoError(t, err)
	f := fetcher.New(stub, nil, fetcher.Config{MaxAttempts: 1, RetryDelay: time.Millisecond}, zap.NewNop())

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Auth.Enabled = true
	cfg.Auth.APIKey = "sekrit"
	s := NewServer(store, f, cfg, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-API-Key", "sekrit")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
