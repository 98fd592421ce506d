package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "innkeeper"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status code.",
		},
		[]string{"endpoint", "code"},
	)

	evaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Availability decisions by kind and outcome (valid or rejection kind).",
		},
		[]string{"kind", "outcome"},
	)

	calendarLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calendar_loads_total",
			Help:      "Room calendar loads by source (cache, upstream) and result.",
		},
		[]string{"source", "result"},
	)

	upstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of booking-data service calls.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"code"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, evaluations, calendarLoads, upstreamDuration)
	})
}

// IncHTTP counts a served request.
func IncHTTP(endpoint string, code int) {
	httpRequests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
}

// IncEvaluation counts a decision; outcome is "valid" or the rejection kind.
func IncEvaluation(kind, outcome string) {
	evaluations.WithLabelValues(kind, outcome).Inc()
}

// IncCalendarLoad counts a calendar lookup.
func IncCalendarLoad(source, result string) {
	calendarLoads.WithLabelValues(source, result).Inc()
}

// ObserveUpstream records one upstream attempt. code 0 means a transport error.
func ObserveUpstream(code int, d time.Duration) {
	upstreamDuration.WithLabelValues(strconv.Itoa(code)).Observe(d.Seconds())
}
