package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// soil analysis service.
type Metrics struct {
	AnalysesCompleted  prometheus.Counter
	AnalysisErrors     prometheus.Counter
	AnalysisDuration   prometheus.Histogram
	RecommendationsPer prometheus.Histogram

	// Provider client metrics.
	ProviderRequests        *prometheus.CounterVec   // labels: endpoint={login,layers,soilproperty}, outcome={success,error}
	ProviderRequestDuration *prometheus.HistogramVec // labels: endpoint
	TokenRefreshes          prometheus.Counter
	PayloadCache            *prometheus.CounterVec // labels: result={hit,miss}

	// Report publishing metrics.
	ReportsPublished prometheus.Counter
	PublishErrors    prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		AnalysesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "soil_analysis",
			Name:      "analyses_completed_total",
			Help:      "Total soil analyses completed successfully.",
		}),
		AnalysisErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "soil_analysis",
			Name:      "analysis_errors_total",
			Help:      "Total soil analyses that failed.",
		}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "soil_analysis",
			Name:      "analysis_duration_seconds",
			Help:      "Duration of a complete analysis including the provider fetch.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 45},
		}),
		RecommendationsPer: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "soil_analysis",
			Name:      "recommendations_per_analysis",
			Help:      "Number of recommendations produced per analysis.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
		}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soil_analysis",
			Name:      "provider_requests_total",
			Help:      "iSDA API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		ProviderRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "soil_analysis",
			Name:      "provider_request_duration_seconds",
			Help:      "iSDA API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 45},
		}, []string{"endpoint"}),
		TokenRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "soil_analysis",
			Name:      "token_refreshes_total",
			Help:      "Successful provider authentications.",
		}),
		PayloadCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soil_analysis",
			Name:      "payload_cache_total",
			Help:      "Soil payload cache lookups by result.",
		}, []string{"result"}),
		ReportsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "soil_analysis",
			Name:      "reports_published_total",
			Help:      "Analysis reports published to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "soil_analysis",
			Name:      "publish_errors_total",
			Help:      "Failed report publish attempts.",
		}),
	}

	prometheus.MustRegister(
		m.AnalysesCompleted,
		m.AnalysisErrors,
		m.AnalysisDuration,
		m.RecommendationsPer,
		m.ProviderRequests,
		m.ProviderRequestDuration,
		m.TokenRefreshes,
		m.PayloadCache,
		m.ReportsPublished,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		AnalysesCompleted:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "soil_analysis", Name: "analyses_completed_total"}),
		AnalysisErrors:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "soil_analysis", Name: "analysis_errors_total"}),
		AnalysisDuration:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "soil_analysis", Name: "analysis_duration_seconds"}),
		RecommendationsPer:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "soil_analysis", Name: "recommendations_per_analysis"}),
		ProviderRequests:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "soil_analysis", Name: "provider_requests_total"}, []string{"endpoint", "outcome"}),
		ProviderRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "soil_analysis", Name: "provider_request_duration_seconds"}, []string{"endpoint"}),
		TokenRefreshes:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "soil_analysis", Name: "token_refreshes_total"}),
		PayloadCache:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "soil_analysis", Name: "payload_cache_total"}, []string{"result"}),
		ReportsPublished:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "soil_analysis", Name: "reports_published_total"}),
		PublishErrors:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: "soil_analysis", Name: "publish_errors_total"}),
	}
}
