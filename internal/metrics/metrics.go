// Package metrics exposes Prometheus collectors for the cache, the fetch
// pipeline and the HTTP surface.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts lookups satisfied from the cache.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matchodds_cache_hits_total",
		Help: "Total cache lookups satisfied without a fetch.",
	})

	// CacheMisses counts lookups that required a fetch.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matchodds_cache_misses_total",
		Help: "Total cache lookups that missed and triggered a fetch.",
	})

	// FetchAttempts counts extractor calls by final outcome.
	FetchAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matchodds_fetch_attempts_total",
		Help: "Total extractor attempts, labeled by outcome.",
	}, []string{"outcome"})

	// HarvestProcessed counts combinations the batch driver has committed.
	HarvestProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matchodds_harvest_processed_total",
		Help: "Total combinations processed by the harvester.",
	})

	// HarvestSkips counts combinations skipped because they were cached.
	HarvestSkips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matchodds_harvest_skipped_total",
		Help: "Total combinations skipped as already cached.",
	})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matchodds_http_requests_total",
		Help: "Total HTTP requests, labeled by method, route and code.",
	}, []string{"method", "route", "code"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "matchodds_http_request_duration_seconds",
		Help:    "HTTP request latency, labeled by method and route.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"method", "route"})
)

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(method, route string, status int, seconds float64) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(seconds)
}
