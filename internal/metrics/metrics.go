// Package metrics exposes prometheus instruments for SMS dispatch.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sendTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sms_dispatch",
			Name:      "send_total",
			Help:      "Total send attempts by result.",
		},
		[]string{"result"}, // sent, failed, rejected
	)

	statusChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sms_dispatch",
			Name:      "status_checks_total",
			Help:      "Total status checks by result.",
		},
		[]string{"result"}, // changed, unchanged, error
	)

	gatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sms_gateway",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests to the SMS gateway.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"}, // token, submit, delivery_status
	)
)

func ObserveSend(result string) {
	sendTotal.WithLabelValues(result).Inc()
}

func ObserveStatusCheck(result string) {
	statusChecksTotal.WithLabelValues(result).Inc()
}

// ObserveGatewayRequest records the time elapsed since start for operation.
func ObserveGatewayRequest(operation string, start time.Time) {
	gatewayRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
