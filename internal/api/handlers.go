package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/oddsmith/matchodds/internal/cache"
	"github.com/oddsmith/matchodds/internal/criteria"
	"github.com/oddsmith/matchodds/internal/extractor"
	"github.com/oddsmith/matchodds/internal/metrics"
)

// oddsEnvelope is the response for the on-demand lookup path.
type oddsEnvelope struct {
	Result      cache.Payload       `json:"result"`
	Criteria    criteria.Normalized `json:"criteria"`
	FromCache   bool                `json:"fromCache"`
	CacheKey    string              `json:"cacheKey"`
	CachedAt    time.Time           `json:"cachedAt"`
	AccessCount int                 `json:"accessCount"`
}

// lookupOdds handles POST /v1/odds: normalize the raw body, serve from the
// cache when possible (with explicit access bookkeeping), otherwise fetch,
// cache and return.
func (s *Server) lookupOdds(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	params := criteria.Normalize(raw)
	fp := criteria.Fingerprint(params)

	if entry, hit := s.store.Get(fp); hit {
		metrics.CacheHits.Inc()
		if err := s.store.Touch(fp); err != nil {
			s.logger.Error("touch failed", zap.String("fingerprint", fp), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "cache persistence failed")
			return
		}
		writeJSON(w, http.StatusOK, oddsEnvelope{
			Result:      entry.Payload,
			Criteria:    params,
			FromCache:   true,
			CacheKey:    fp,
			CachedAt:    entry.CreatedAt,
			AccessCount: entry.AccessCount + 1,
		})
		return
	}

	metrics.CacheMisses.Inc()
	payload, err := s.fetcher.Fetch(r.Context(), criteria.NewCombination(params))
	if err != nil {
		var fetchErr *extractor.FetchError
		if errors.As(err, &fetchErr) {
			s.logger.Warn("on-demand fetch failed",
				zap.String("fingerprint", fp),
				zap.String("kind", string(fetchErr.Kind)),
				zap.Error(err),
			)
			writeError(w, http.StatusBadGateway, "source fetch failed: "+string(fetchErr.Kind))
			return
		}
		s.logger.Error("on-demand fetch aborted", zap.String("fingerprint", fp), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	if err := s.store.Put(fp, params, payload); err != nil {
		s.logger.Error("cache put failed", zap.String("fingerprint", fp), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "cache persistence failed")
		return
	}

	entry, _ := s.store.Get(fp)
	writeJSON(w, http.StatusOK, oddsEnvelope{
		Result:      payload,
		Criteria:    params,
		FromCache:   false,
		CacheKey:    fp,
		CachedAt:    entry.CreatedAt,
		AccessCount: entry.AccessCount,
	})
}

// cacheStats handles GET /v1/cache/stats.
func (s *Server) cacheStats(w http.ResponseWriter, _ *http.Request) {
	entries := s.store.Len()
	accesses := s.store.TotalAccesses()
	hits := accesses - entries
	if hits < 0 {
		hits = 0
	}
	hitRate := 0.0
	if accesses > 0 {
		hitRate = float64(hits) / float64(accesses)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries":       entries,
		"totalAccesses": accesses,
		"hits":          hits,
		"hitRate":       hitRate,
	})
}
