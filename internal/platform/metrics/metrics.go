package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds process-level Prometheus metrics. Module-specific metrics
// live next to their module.
type Metrics struct {
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates and registers all process-level metrics.
func New() *Metrics {
	return &Metrics{
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cedrus_http_requests_total",
			Help: "Total HTTP requests by route and status code",
		}, []string{"route", "code"}),

		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cedrus_http_request_duration_seconds",
			Help:    "HTTP request duration by route",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route"}),
	}
}
