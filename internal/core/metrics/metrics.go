// Package metrics registers the prometheus collectors exported at /metrics.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	upstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_upstream_request_duration_seconds",
			Help:    "Duration of calls to the payment gateway and courier APIs",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"upstream", "status"},
	)

	orderOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_order_operations_total",
			Help: "Total number of order lifecycle operations",
		},
		[]string{"operation", "status"},
	)
)

// unmatchedRoute labels requests no route answered so unknown paths share one series.
const unmatchedRoute = "unmatched"

// Middleware records request counts and latency by route template. Errors are rendered through
// the app's ErrorHandler first so the recorded status is the one the client receives.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		chainErr := c.Next()

		path := c.Route().Path
		if chainErr != nil {
			var fe *fiber.Error
			if errors.As(chainErr, &fe) && fe.Code == fiber.StatusNotFound {
				path = unmatchedRoute
			}
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		if path == "" {
			path = unmatchedRoute
		}
		status := strconv.Itoa(c.Response().StatusCode())

		httpRequestsTotal.WithLabelValues(c.Method(), path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Method(), path, status).Observe(time.Since(start).Seconds())

		return nil
	}
}

// ObserveUpstream records one outbound API call. status is the HTTP code or "error".
func ObserveUpstream(upstream, status string, d time.Duration) {
	upstreamRequestDuration.WithLabelValues(upstream, status).Observe(d.Seconds())
}

// RecordOrderOperation counts one lifecycle operation (place, verify_payment, create_shipment...).
func RecordOrderOperation(operation string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	orderOperations.WithLabelValues(operation, status).Inc()
}
