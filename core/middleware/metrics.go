package middleware

import (
	"time"

	"github.com/gatewaymux/gatewaymux/core"
)

// MetricsCollector is the interface delivery metrics backends implement.
// Keeping the middleware decoupled from any specific metrics library lets
// internal/metrics supply a Prometheus-backed implementation without this
// package importing client_golang directly.
type MetricsCollector interface {
	// DeliveryObserved records that moduleName's Receive ran for duration.
	DeliveryObserved(moduleName string, duration time.Duration)
}

// Metrics returns delivery middleware that reports every delivery's
// duration to collector, labeled by the receiving module's name.
func Metrics(collector MetricsCollector) core.Middleware {
	return func(next core.ReceiveFunc) core.ReceiveFunc {
		return func(moduleName string, msg *core.Message) {
			start := time.Now()
			next(moduleName, msg)
			collector.DeliveryObserved(moduleName, time.Since(start))
		}
	}
}
