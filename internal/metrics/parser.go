package metrics

import "github.com/prometheus/client_golang/prometheus"

// Parser Prometheus metrics.
var (
	ParseRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchlang",
			Name:      "parse_requests_total",
			Help:      "Total number of parse and decompose requests",
		},
		[]string{"operation", "status"},
	)

	ParseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "searchlang",
			Name:      "parse_duration_seconds",
			Help:      "Parse and decompose duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"operation"},
	)

	IntentionsAppliedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchlang",
			Name:      "intentions_applied_total",
			Help:      "Total intentions applied, by name and outcome",
		},
		[]string{"name", "status"},
	)

	ParseCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchlang",
			Name:      "parse_cache_total",
			Help:      "Parse cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss" / "error"
	)

	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchlang",
			Name:      "backend_requests_total",
			Help:      "Total requests to the search backend",
		},
		[]string{"endpoint", "status"},
	)

	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "searchlang",
			Name:      "backend_request_duration_seconds",
			Help:      "Search backend request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"endpoint"},
	)
)

var parserMetricsRegistered bool

// RegisterParserMetrics registers Prometheus parser metrics. Must be called once from main.
func RegisterParserMetrics() {
	if parserMetricsRegistered {
		return
	}
	prometheus.MustRegister(ParseRequestsTotal)
	prometheus.MustRegister(ParseDuration)
	prometheus.MustRegister(IntentionsAppliedTotal)
	prometheus.MustRegister(ParseCacheTotal)
	prometheus.MustRegister(BackendRequestsTotal)
	prometheus.MustRegister(BackendRequestDuration)
	parserMetricsRegistered = true
}
