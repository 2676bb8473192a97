package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// GatewayMetrics records request metadata for backend calls.
type GatewayMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewGatewayMetrics registers the gateway metrics on the provided registerer.
func NewGatewayMetrics(reg prometheus.Registerer) *GatewayMetrics {
	if reg == nil {
		return &GatewayMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backend_request_duration_seconds",
		Help:    "Duration of backend API calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backend_request_success",
		Help: "Successful backend API calls.",
	}, []string{"operation"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backend_request_failure",
		Help: "Failed backend API calls.",
	}, []string{"operation", "code"})
	reg.MustRegister(duration, success, failure)
	return &GatewayMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the duration for the named operation.
func (g *GatewayMetrics) ObserveDuration(operation string, duration time.Duration) {
	if g == nil || g.duration == nil {
		return
	}
	g.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named operation.
func (g *GatewayMetrics) IncSuccess(operation string) {
	if g == nil || g.success == nil {
		return
	}
	g.success.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncFailure increments the failure counter for the named operation and code.
func (g *GatewayMetrics) IncFailure(operation, code string) {
	if g == nil || g.failure == nil {
		return
	}
	g.failure.WithLabelValues(normalizeLabel(operation), normalizeLabel(code)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
