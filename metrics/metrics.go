package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	ConversionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversions_total",
			Help: "Total number of document conversions by outcome",
		},
		[]string{"outcome"},
	)

	ConversionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "conversion_duration_seconds",
			Help:    "External converter wall-clock time in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120},
		},
	)

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Total number of notifications created by kind",
		},
		[]string{"kind"},
	)

	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of workflow events published to Kafka",
		},
		[]string{"topic", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		ConversionsTotal,
		ConversionDuration,
		NotificationsTotal,
		EventsPublished,
	)
}

// StartMetricsServer exposes /metrics on its own port. A listen failure is
// reported through errFn rather than crashing the process.
func StartMetricsServer(port string, errFn func(error)) {
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(":"+port, nil); err != nil {
			errFn(fmt.Errorf("metrics server failed: %w", err))
		}
	}()
}

func RecordRequest(method, status string, duration time.Duration) {
	RequestsTotal.WithLabelValues(method, status).Inc()
	RequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}
