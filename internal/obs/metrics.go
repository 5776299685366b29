package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	graphqlOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphql_operations_total",
			Help: "Executed GraphQL operations by field and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	predictionUpstreamTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prediction_upstream_requests_total",
			Help: "Outbound calls to the prediction service by outcome.",
		},
		[]string{"outcome"},
	)

	predictionUpstreamDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "prediction_upstream_duration_seconds",
			Help:    "Latency of outbound prediction calls.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Init registers all service metrics with the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight,
		httpRequestsTotal,
		httpRequestDuration,
		graphqlOperationsTotal,
		predictionUpstreamTotal,
		predictionUpstreamDuration,
	)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveGraphQLOperation records one resolved top-level field.
func ObserveGraphQLOperation(operation, outcome string) {
	graphqlOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// ObserveUpstreamPrediction records one outbound prediction call.
func ObserveUpstreamPrediction(outcome string, d time.Duration) {
	predictionUpstreamTotal.WithLabelValues(outcome).Inc()
	predictionUpstreamDuration.Observe(d.Seconds())
}

// Instrument wraps a handler with RPS/latency/in-flight measurements.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// statusWriter captures the response code written by the wrapped handler.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
