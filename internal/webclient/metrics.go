package webclient

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "velkoz",
			Subsystem: "webclient",
			Name:      "requests_total",
			Help:      "Outbound page requests by backend and outcome.",
		},
		[]string{"backend", "outcome"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "velkoz",
			Subsystem: "webclient",
			Name:      "request_duration_seconds",
			Help:      "Time spent on outbound page requests, body included.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"backend"},
	)
)

// RegisterMetrics registers the webclient collectors with reg. Registering
// twice with the same registry is not an error.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{RequestsTotal, RequestDuration} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// outcome labels
const (
	outcomeOK        = "ok"
	outcomeHTTPError = "http_error"
	outcomeTransport = "transport_error"
)

func observe(backend string, start time.Time, statusCode int, err error) {
	RequestDuration.WithLabelValues(backend).Observe(time.Since(start).Seconds())
	switch {
	case err != nil:
		RequestsTotal.WithLabelValues(backend, outcomeTransport).Inc()
	case statusCode < 200 || statusCode >= 300:
		RequestsTotal.WithLabelValues(backend, outcomeHTTPError).Inc()
	default:
		RequestsTotal.WithLabelValues(backend, outcomeOK).Inc()
	}
}
