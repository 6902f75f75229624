// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chatReplies = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "travelchat",
		Name:      "chat_replies_total",
		Help:      "Chat replies grouped by how they were produced.",
	}, []string{"kind"})

	modelLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "travelchat",
		Name:      "model_request_duration_seconds",
		Help:      "Latency of language model calls.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
	}, []string{"outcome"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "travelchat",
		Name:      "http_requests_total",
		Help:      "HTTP requests grouped by route pattern, method and status.",
	}, []string{"route", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "travelchat",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency grouped by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})
)

// CountReply increments the reply counter for kind.
func CountReply(kind string) {
	chatReplies.WithLabelValues(kind).Inc()
}

// ObserveModelLatency records one model call.
func ObserveModelLatency(d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	modelLatency.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveHTTP records one served request.
func ObserveHTTP(route, method string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}
