package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval pipeline Prometheus metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "munroquery",
			Name:      "searches_total",
			Help:      "Total searches by retrieval mode",
		},
		[]string{"mode"}, // fts / fuzzy / tags / location / none
	)

	SearchFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "munroquery",
			Name:      "search_fallbacks_total",
			Help:      "Location searches degraded to the lexical engine",
		},
		[]string{"reason"}, // "not_found" / "geocoder_error"
	)

	ModelCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "munroquery",
			Name:      "model_calls_total",
			Help:      "Chat model calls by purpose and outcome",
		},
		[]string{"purpose", "status"}, // purpose: intent/answer, status: success/error
	)

	ModelCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "munroquery",
			Name:      "model_call_duration_seconds",
			Help:      "Chat model call duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"purpose"},
	)

	GeocodeCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "munroquery",
			Name:      "geocode_cache_total",
			Help:      "Geocode cache lookups by layer and result",
		},
		[]string{"layer", "result"}, // layer: memory/store, result: hit/miss
	)

	GeocodeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "munroquery",
			Name:      "geocode_requests_total",
			Help:      "Upstream geocoder requests by outcome",
		},
		[]string{"status"}, // success / not_found / error
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers retrieval pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SearchFallbacksTotal)
	prometheus.MustRegister(ModelCallsTotal)
	prometheus.MustRegister(ModelCallDuration)
	prometheus.MustRegister(GeocodeCacheTotal)
	prometheus.MustRegister(GeocodeRequestsTotal)
	pipelineMetricsRegistered = true
}
