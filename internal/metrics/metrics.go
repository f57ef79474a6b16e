package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const divisor = 100

const (
	ResultOK    = "ok"
	ResultError = "error"

	severityWarning = "warning"
)

// Metrics defines all Prometheus metrics for the subscribe service.
type Metrics struct {
	registry *prometheus.Registry

	// RED (Rate, Errors, Duration) for HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestsInFlight prometheus.Gauge
	HTTPRequestDuration  *prometheus.HistogramVec

	// Business metrics
	SubscribersUpserted *prometheus.CounterVec // by result
	WelcomeEmails       *prometheus.CounterVec // by result

	// Store metrics
	StoreOperationDuration *prometheus.HistogramVec
	StoreOperations        *prometheus.CounterVec

	ServiceUptime prometheus.Gauge

	BusinessErrors  *prometheus.CounterVec
	TechnicalErrors *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics under the given namespace on a private registry.
func NewMetrics(namespace string) *Metrics {
	errorLabels := []string{"error_type", "severity"}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests total",
			},
			[]string{"method", "endpoint", "status_class"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "In-flight HTTP requests",
			},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		SubscribersUpserted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "subscribers_upserted_total",
				Help:      "Subscriber upserts by result",
			},
			[]string{"result"},
		),
		WelcomeEmails: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "welcome_emails_total",
				Help:      "Welcome email deliveries by result",
			},
			[]string{"result"},
		),

		StoreOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_operation_duration_seconds",
				Help:      "Subscriber store operation latencies",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		StoreOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_operations_total",
				Help:      "Subscriber store operation counts",
			},
			[]string{"operation", "driver"},
		),

		ServiceUptime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "service_uptime_seconds",
				Help:      "Service start time in unix seconds",
			},
		),

		BusinessErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "business_errors_total",
				Help:      "Total business errors",
			},
			errorLabels,
		),
		TechnicalErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "technical_errors_total",
				Help:      "Total technical errors",
			},
			errorLabels,
		),
	}

	m.registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestsInFlight,
		m.HTTPRequestDuration,
		m.SubscribersUpserted,
		m.WelcomeEmails,
		m.StoreOperationDuration,
		m.StoreOperations,
		m.ServiceUptime,
		m.BusinessErrors,
		m.TechnicalErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m.ServiceUptime.SetToCurrentTime()

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the private registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// HTTPMiddleware instruments Gin HTTP handlers for RED metrics.
func (m *Metrics) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		c.Next()
		m.HTTPRequestsInFlight.Dec()

		dur := time.Since(start).Seconds()
		status := c.Writer.Status()
		statusClass := fmt.Sprintf("%dxx", status/divisor)

		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, c.FullPath(), statusClass).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, c.FullPath()).Observe(dur)
	}
}

// ObserveLatency and IncrementCounter let store decorators report without knowing Prometheus.
func (m *Metrics) ObserveLatency(op string, d time.Duration) {
	m.StoreOperationDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) IncrementCounter(metric string, labels ...string) {
	m.StoreOperations.WithLabelValues(append([]string{metric}, labels...)...).Inc()
}

func (m *Metrics) RecordUpsert(err error) {
	m.SubscribersUpserted.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) RecordWelcomeEmail(err error) {
	m.WelcomeEmails.WithLabelValues(result(err)).Inc()
}

// RecordBusinessError counts a request rejected because of its content.
func (m *Metrics) RecordBusinessError(errType string) {
	m.BusinessErrors.WithLabelValues(errType, severityWarning).Inc()
}

// RecordTechnicalError counts a failure of a dependency the request relied on.
func (m *Metrics) RecordTechnicalError(errType, severity string) {
	m.TechnicalErrors.WithLabelValues(errType, severity).Inc()
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
