package estimator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// estimatesTotal counts returned quotes by the stage that produced them.
	estimatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fare_estimates_total",
		Help: "Total number of fare estimates by stage and service",
	}, []string{"stage", "service"})

	estimateDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fare_estimate_duration_seconds",
		Help:    "Time taken to produce a fare estimate by stage",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 15, 45},
	}, []string{"stage"})

	estimateConfidence = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fare_estimate_confidence",
		Help:    "Confidence of returned fare estimates",
		Buckets: []float64{0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
	}, []string{"stage"})

	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fare_cache_hits_total",
		Help: "Total number of quote cache hits by service",
	}, []string{"service"})

	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fare_cache_misses_total",
		Help: "Total number of quote cache misses by service",
	}, []string{"service"})

	// providerAttempts tracks live provider calls. outcome: success, retryable, final
	providerAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fare_provider_attempts_total",
		Help: "Total number of live provider attempts by provider and outcome",
	}, []string{"provider", "outcome"})

	// breakerState tracks provider breakers (0 closed, 1 half-open, 2 open).
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fare_provider_breaker_state",
		Help: "Circuit breaker state by provider",
	}, []string{"provider"})

	unavailableTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fare_service_unavailable_total",
		Help: "Total number of quotes beyond a service distance limit",
	}, []string{"service"})

	batchInflight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fare_batch_inflight_estimates",
		Help: "Number of batch estimates in progress",
	})

	cacheSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fare_cache_swept_entries_total",
		Help: "Total number of expired cache entries removed by the sweeper",
	})

	cacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fare_cache_entries",
		Help: "Number of entries held by the quote cache",
	})
)

// MetricsRecorder provides methods to record engine metrics.
type MetricsRecorder struct{}

// NewMetricsRecorder creates a new metrics recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordEstimate records a returned quote.
func (m *MetricsRecorder) RecordEstimate(stage Stage, service string, duration time.Duration, confidence float64) {
	estimatesTotal.WithLabelValues(string(stage), service).Inc()
	estimateDuration.WithLabelValues(string(stage)).Observe(duration.Seconds())
	estimateConfidence.WithLabelValues(string(stage)).Observe(confidence)
}

// RecordCacheHit records a quote cache hit.
func (m *MetricsRecorder) RecordCacheHit(service string) {
	cacheHits.WithLabelValues(service).Inc()
}

// RecordCacheMiss records a quote cache miss.
func (m *MetricsRecorder) RecordCacheMiss(service string) {
	cacheMisses.WithLabelValues(service).Inc()
}

// RecordProviderAttempt records one live provider call.
func (m *MetricsRecorder) RecordProviderAttempt(provider, outcome string) {
	providerAttempts.WithLabelValues(provider, outcome).Inc()
}

// RecordBreakerState records a provider breaker transition.
func (m *MetricsRecorder) RecordBreakerState(provider string, value float64) {
	breakerState.WithLabelValues(provider).Set(value)
}

// RecordUnavailable records a quote refused by a distance limit.
func (m *MetricsRecorder) RecordUnavailable(service string) {
	unavailableTotal.WithLabelValues(service).Inc()
}

// IncrementBatchInflight increments the batch gauge.
func (m *MetricsRecorder) IncrementBatchInflight() {
	batchInflight.Inc()
}

// DecrementBatchInflight decrements the batch gauge.
func (m *MetricsRecorder) DecrementBatchInflight() {
	batchInflight.Dec()
}

// RecordSweep records a cache sweep.
func (m *MetricsRecorder) RecordSweep(removed, remaining int) {
	cacheSwept.Add(float64(removed))
	cacheEntries.Set(float64(remaining))
}
