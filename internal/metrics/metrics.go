// Package metrics provides Prometheus metrics for kicad-lcsc.
//
// Metrics are registered on the default registry and exposed by
// `kicad-lcsc mcp serve --metrics-addr`.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Remote source metrics
	RemoteRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kicad_lcsc_remote_requests_total",
			Help: "Total number of requests sent to remote sources",
		},
		[]string{"source", "status"},
	)

	RemoteRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kicad_lcsc_remote_request_duration_seconds",
			Help:    "Duration of requests to remote sources",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	RemoteRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kicad_lcsc_remote_retries_total",
			Help: "Total number of retried remote requests",
		},
		[]string{"source"},
	)

	RateLimitDelay = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kicad_lcsc_rate_limit_delay_seconds",
			Help:    "Time delayed by the per-source rate limiter",
			Buckets: []float64{0, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"source"},
	)

	// Search metrics
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kicad_lcsc_searches_total",
			Help: "Total number of component searches by outcome",
		},
		[]string{"outcome"},
	)

	SourceCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kicad_lcsc_source_cache_total",
			Help: "Source cache lookups by result",
		},
		[]string{"result"},
	)

	SourceCachePurgedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kicad_lcsc_source_cache_purged_total",
			Help: "Total number of expired source cache entries removed",
		},
	)

	// Conversion metrics
	ConversionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kicad_lcsc_conversions_total",
			Help: "Total number of component conversions",
		},
		[]string{"status"},
	)

	ConversionWarningsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kicad_lcsc_conversion_warnings_total",
			Help: "Total number of warnings recorded during conversion",
		},
	)

	// Preview metrics
	RendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kicad_lcsc_renders_total",
			Help: "Total number of preview renders by outcome",
		},
		[]string{"kind", "status"},
	)

	// Library metrics
	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kicad_lcsc_imports_total",
			Help: "Total number of library imports by status",
		},
		[]string{"status"},
	)
)

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
