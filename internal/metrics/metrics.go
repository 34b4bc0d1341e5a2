package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "search_assistant_requests_total",
		Help: "Total number of HTTP requests by route and status code",
	}, []string{"route", "code"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "search_assistant_request_duration_seconds",
		Help:    "HTTP request duration",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	}, []string{"route"})

	GenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "search_assistant_generation_duration_seconds",
		Help:    "Duration of model generation calls",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"model"})

	PromptTokens = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "search_assistant_prompt_tokens",
		Help:    "Distribution of prompt lengths in tokens",
		Buckets: []float64{64, 128, 256, 384, 512, 1024, 2048},
	})

	BackendInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "search_assistant_backend_in_flight",
		Help: "Generation calls currently holding the backend",
	})

	ErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "search_assistant_errors_total",
		Help: "Total errors by kind",
	}, []string{"kind"})

	SearchCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "search_assistant_search_cache_lookups_total",
		Help: "Search cache lookups by result",
	}, []string{"result"})

	SearchResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "search_assistant_search_results_total",
		Help: "Search results returned by source",
	}, []string{"source"})
)

func RecordError(kind string) {
	ErrorsTotal.WithLabelValues(kind).Inc()
}
