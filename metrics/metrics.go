// Package metrics exposes Prometheus collectors for the analysis pipeline.
// Collectors are registered on the default registry and served via promhttp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AnalysesTotal counts diversity analysis runs, partitioned by cache outcome
	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "imagerank",
		Name:      "analyses_total",
		Help:      "Number of diversity analysis runs.",
	}, []string{"cache"})

	// SectionRunsTotal counts section-matching runs
	SectionRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "imagerank",
		Name:      "section_runs_total",
		Help:      "Number of section matching runs.",
	})

	// ScansTotal counts shop-page scans, partitioned by outcome
	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "imagerank",
		Name:      "scans_total",
		Help:      "Number of shop page scans.",
	}, []string{"status"})

	// CacheErrors counts cache store failures that degraded to recompute
	CacheErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "imagerank",
		Name:      "cache_errors_total",
		Help:      "Number of cache store errors (reads and writes).",
	})

	// SimilarityDuration observes how long the pairwise matrix computation takes
	SimilarityDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "imagerank",
		Name:      "similarity_matrix_duration_seconds",
		Help:      "Time spent computing the pairwise similarity matrix.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	})

	// ImagesPerRun observes input sizes; the matrix is O(n^2) so callers are
	// expected to stay around n <= 50
	ImagesPerRun = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "imagerank",
		Name:      "images_per_run",
		Help:      "Number of images per analysis run.",
		Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
	})
)
