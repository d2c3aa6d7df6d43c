package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "saleor_app"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	registrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registration",
			Name:      "transitions_total",
			Help:      "Registration state transitions, by state and error kind.",
		},
		[]string{"state", "kind"},
	)

	validationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "registration",
			Name:      "token_validation_duration_seconds",
			Help:      "Duration of the outbound token validation call.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 11), // 10ms to ~10s
		},
		[]string{"result"},
	)

	storeOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "apl",
			Name:      "operations_total",
			Help:      "Installation store operations.",
		},
		[]string{"driver", "op", "result"},
	)

	storeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "apl",
			Name:      "operation_duration_seconds",
			Help:      "Duration of installation store operations.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
		[]string{"driver", "op"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		registrations,
		validationDuration,
		storeOps,
		storeDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func IncInFlight() { httpInFlight.Inc() }
func DecInFlight() { httpInFlight.Dec() }

// RecordHTTPRequest records one handled request. path should be a route
// template so label cardinality stays bounded.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	method = strings.ToUpper(method)
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordRegistration counts a registration state transition. kind is empty
// unless the state is a rejection.
func RecordRegistration(state, kind string) {
	registrations.WithLabelValues(state, kind).Inc()
}

// RecordValidation observes the outbound validation call.
func RecordValidation(result string, duration time.Duration) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	validationDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// RecordStoreOperation records an installation store call.
func RecordStoreOperation(driver, op string, err error, duration time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	storeOps.WithLabelValues(driver, op, result).Inc()
	storeDuration.WithLabelValues(driver, op).Observe(duration.Seconds())
}
