package search

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Query outcomes recorded in the status label.
const (
	statusOK        = "ok"
	statusInvalid   = "invalid"
	statusError     = "error"
	statusCancelled = "cancelled"
)

type metrics struct {
	queries     *prometheus.CounterVec
	matches     prometheus.Counter
	duration    prometheus.Histogram
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		queries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spansearch_queries_total",
				Help: "Total number of queries by outcome",
			},
			[]string{"status"},
		),
		matches: f.NewCounter(prometheus.CounterOpts{
			Name: "spansearch_matches_total",
			Help: "Total number of matches found",
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "spansearch_query_duration_seconds",
			Help:    "Query latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "spansearch_compile_cache_hits_total",
			Help: "Compiled queries served from the cache",
		}),
		cacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "spansearch_compile_cache_misses_total",
			Help: "Queries compiled because they were not cached",
		}),
	}
}
