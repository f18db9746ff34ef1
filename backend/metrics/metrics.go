package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Variant cache metrics
var (
	VariantCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_preview_variant_cache_hits_total",
			Help: "Total number of pixmap requests served from a variant cache",
		},
	)

	VariantCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_preview_variant_cache_misses_total",
			Help: "Total number of pixmap requests that had to be rasterized",
		},
	)

	Rasterizations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_preview_rasterizations_total",
			Help: "Total number of rasterized pixmaps",
		},
		[]string{"cache", "data"}, // cache: cached|nocache, data: decoded|placeholder
	)

	SourceReplacements = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_preview_source_replacements_total",
			Help: "Total number of image source replacements",
		},
	)
)

// Source metrics
var (
	SourceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_preview_source_failures_total",
			Help: "Total number of failed fetches and decodes in image sources",
		},
		[]string{"kind"}, // "fetch", "decode"
	)

	SourcesGivenUp = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_preview_sources_given_up_total",
			Help: "Total number of sources that stopped retrying after repeated failures",
		},
	)
)

// Loader metrics
var (
	LoaderFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_preview_loader_fetches_total",
			Help: "Total number of finished load tasks",
		},
		[]string{"result"}, // "cache", "fetched", "error", "cancelled"
	)

	LoaderFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_preview_loader_fetch_duration_seconds",
			Help:    "Duration of load tasks in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
	)

	LoaderTasksInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_preview_loader_tasks_in_flight",
			Help: "Number of load tasks currently queued or running",
		},
	)
)

// Reply preview metrics
var (
	ReplyPreviewsPrepared = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_preview_reply_previews_prepared_total",
			Help: "Total number of prepared reply preview images",
		},
		[]string{"quality"}, // "good", "blurred"
	)
)

// Persistent cache metrics
var (
	PersistentCacheBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_preview_persistent_cache_bytes",
			Help: "Size of the encoded images kept in the SQLite cache",
		},
	)

	PersistentCacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_preview_persistent_cache_evictions_total",
			Help: "Total number of images evicted from the SQLite cache",
		},
	)
)
