package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Tracks document fetches against the provider.
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basedata_fetch_total",
			Help: "Total number of provider document fetches (by asset class and result).",
		},
		[]string{"asset_class", "result"}, // result = "ok" | "error"
	)

	// Measures duration of provider document fetches, retries included.
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "basedata_fetch_duration_seconds",
			Help:    "Duration of provider document fetches in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 13), // 5ms → ~20s
		},
		[]string{"phase"}, // initial | refetch
	)

	// Tracks completed extractions.
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basedata_extractions_total",
			Help: "Total number of instrument extractions (by asset class and result).",
		},
		[]string{"asset_class", "result"},
	)

	// Tracks non-fatal parse warnings.
	WarningsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basedata_warnings_total",
			Help: "Count of non-fatal extraction warnings by kind.",
		},
		[]string{"kind"},
	)

	// Tracks record cache hits and misses.
	CacheAccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basedata_cache_access_total",
			Help: "Number of hits/misses in the instrument record cache.",
		},
		[]string{"result"}, // hit | miss
	)

	// Tracks total errors (aggregated).
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adapter_errors_total",
			Help: "Count of adapter-level errors by component.",
		},
		[]string{"component", "reason"},
	)
)

// ObserveDuration records the time taken since start on the given histogram.
func ObserveDuration(v interface{}, start time.Time, labels ...string) {
	duration := time.Since(start).Seconds()

	switch metric := v.(type) {
	case *prometheus.HistogramVec:
		metric.WithLabelValues(labels...).Observe(duration)
	case *prometheus.SummaryVec:
		metric.WithLabelValues(labels...).Observe(duration)
	default:
		// counters are not meant for duration tracking
	}
}

func IncFetch(assetClass, result string) {
	FetchTotal.WithLabelValues(assetClass, result).Inc()
}

func IncExtraction(assetClass, result string) {
	ExtractionsTotal.WithLabelValues(assetClass, result).Inc()
}

func IncWarning(kind string) {
	WarningsTotal.WithLabelValues(kind).Inc()
}

func IncCacheAccess(result string) {
	CacheAccess.WithLabelValues(result).Inc()
}

func IncError(component, reason string) {
	ErrorsTotal.WithLabelValues(component, reason).Inc()
}
