package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsService handles Prometheus metrics collection
type MetricsService struct {
	// Request metrics
	requestsTotal *prometheus.CounterVec

	// Routing metrics
	scenarioTotal *prometheus.CounterVec
	fallbackTotal *prometheus.CounterVec

	// Latency metrics
	modelLatency *prometheus.HistogramVec
	totalLatency *prometheus.HistogramVec

	// Error metrics
	errorsTotal *prometheus.CounterVec

	// In-flight executions past the admission gate
	activeExecutions prometheus.Gauge
}

// NewMetricsService creates a metrics service and registers its collectors
func NewMetricsService() *MetricsService {
	ms := &MetricsService{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_bridge_requests_total",
				Help: "Total number of chat completion requests",
			},
			[]string{"model", "stream", "status"},
		),

		scenarioTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_bridge_scenario_total",
				Help: "Total number of requests per classified scenario",
			},
			[]string{"scenario"},
		),

		fallbackTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_bridge_fallback_total",
				Help: "Total number of requests served by a fallback model",
			},
			[]string{"scenario", "model"},
		),

		modelLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_bridge_model_latency_ms",
				Help:    "Backend model latency in milliseconds",
				Buckets: []float64{100, 500, 1000, 2000, 5000, 10000, 20000, 60000},
			},
			[]string{"model"},
		),

		totalLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_bridge_total_latency_ms",
				Help:    "Total request latency in milliseconds",
				Buckets: []float64{100, 500, 1000, 2000, 5000, 10000, 20000, 30000, 60000},
			},
			[]string{"model"},
		),

		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_bridge_errors_total",
				Help: "Total number of errors by kind",
			},
			[]string{"kind", "model"},
		),

		activeExecutions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "llm_bridge_active_executions",
				Help: "Number of backend executions currently in flight",
			},
		),
	}

	prometheus.MustRegister(
		ms.requestsTotal,
		ms.scenarioTotal,
		ms.fallbackTotal,
		ms.modelLatency,
		ms.totalLatency,
		ms.errorsTotal,
		ms.activeExecutions,
	)

	return ms
}

// RecordRequest counts one completed request
func (ms *MetricsService) RecordRequest(model string, stream bool, status string) {
	streamLabel := "false"
	if stream {
		streamLabel = "true"
	}
	ms.requestsTotal.WithLabelValues(model, streamLabel, status).Inc()
}

// RecordScenario counts one classification verdict
func (ms *MetricsService) RecordScenario(scenario string) {
	ms.scenarioTotal.WithLabelValues(scenario).Inc()
}

// RecordFallback counts a request that was served by a fallback model
func (ms *MetricsService) RecordFallback(scenario, model string) {
	ms.fallbackTotal.WithLabelValues(scenario, model).Inc()
}

// RecordModelLatency observes backend latency for one attempt chain walk
func (ms *MetricsService) RecordModelLatency(model string, latencyMs float64) {
	ms.modelLatency.WithLabelValues(model).Observe(latencyMs)
}

// RecordTotalLatency observes end-to-end request latency
func (ms *MetricsService) RecordTotalLatency(model string, latencyMs float64) {
	ms.totalLatency.WithLabelValues(model).Observe(latencyMs)
}

// RecordError counts one error by kind
func (ms *MetricsService) RecordError(kind, model string) {
	ms.errorsTotal.WithLabelValues(kind, model).Inc()
}

// ActiveExecutions exposes the in-flight execution gauge
func (ms *MetricsService) ActiveExecutions() prometheus.Gauge {
	return ms.activeExecutions
}
