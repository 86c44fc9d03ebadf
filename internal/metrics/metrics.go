package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatewaymux_deliveries_total",
			Help: "Total number of messages delivered to a module's Receive",
		},
		[]string{"module"},
	)

	DeliveryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gatewaymux_delivery_duration_seconds",
			Help:    "Time spent inside a module's Receive call",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"module"},
	)

)

func init() {
	prometheus.MustRegister(DeliveriesTotal)
	prometheus.MustRegister(DeliveryDuration)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Collector adapts the package-level metrics to
// core/middleware.MetricsCollector, so the broker's delivery middleware can
// report without importing client_golang itself.
type Collector struct{}

// DeliveryObserved implements middleware.MetricsCollector.
func (Collector) DeliveryObserved(moduleName string, duration time.Duration) {
	DeliveriesTotal.WithLabelValues(moduleName).Inc()
	DeliveryDuration.WithLabelValues(moduleName).Observe(duration.Seconds())
}
