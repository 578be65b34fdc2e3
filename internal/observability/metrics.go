package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "homefit"

// Metrics holds the Prometheus counters and histograms for the assessment engine.
type Metrics struct {
	Assessments        *prometheus.CounterVec // labels: personalized={true,false}
	AssessmentDuration prometheus.Histogram
	ValidationFailures prometheus.Counter

	// Provider metrics.
	ProviderRequests *prometheus.CounterVec   // labels: provider, operation, outcome={success,error}
	ProviderDuration *prometheus.HistogramVec // labels: provider, operation

	// Geocoding metrics.
	GeocodeAttempts *prometheus.CounterVec // labels: provider, outcome={success,error}
	GeocodeResults  *prometheus.CounterVec // labels: source={input,primary,secondary,failed}

	RecapResults      *prometheus.CounterVec // labels: source={generated,template}
	ResultPublishErrs prometheus.Counter
}

// NewMetrics creates and registers all engine metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Assessments,
		m.AssessmentDuration,
		m.ValidationFailures,
		m.ProviderRequests,
		m.ProviderDuration,
		m.GeocodeAttempts,
		m.GeocodeResults,
		m.RecapResults,
		m.ResultPublishErrs,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Assessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_total",
			Help:      "Completed assessments by whether preferences were applied.",
		}, []string{"personalized"}),
		AssessmentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "assessment_duration_seconds",
			Help:      "Wall time of a complete assessment.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 45},
		}),
		ValidationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Requests rejected before any provider was called.",
		}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "External provider calls by provider, operation and outcome.",
		}, []string{"provider", "operation", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_duration_seconds",
			Help:      "External provider call duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider", "operation"}),
		GeocodeAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_attempts_total",
			Help:      "Geocoding attempts by provider and outcome.",
		}, []string{"provider", "outcome"}),
		GeocodeResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_results_total",
			Help:      "Final geocoding outcome per assessment.",
		}, []string{"source"}),
		RecapResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recap_total",
			Help:      "Recaps by the path that produced them.",
		}, []string{"source"}),
		ResultPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_publish_errors_total",
			Help:      "Assessments that could not be published to the result topic.",
		}),
	}
}
