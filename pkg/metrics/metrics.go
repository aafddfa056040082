// Package metrics holds the Prometheus metrics of nexkit
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Directions for byte and variable counters
const (
	DirectionRead  = "read"
	DirectionWrite = "write"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	// Codec metrics
	codecOperationsTotal   *prometheus.CounterVec
	codecOperationDuration *prometheus.HistogramVec
	codecBytesTotal        *prometheus.CounterVec
	codecVariablesTotal    *prometheus.CounterVec
	metadataFailuresTotal  prometheus.Counter

	// Archive metrics
	archiveRecordings prometheus.Gauge

	// HTTP request metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates all metrics and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		codecOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nexkit_codec_operations_total",
				Help: "Total number of file read and write operations",
			},
			[]string{"operation", "format", "status"},
		),

		codecOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nexkit_codec_operation_duration_seconds",
				Help:    "File read and write duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "format"},
		),

		codecBytesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nexkit_codec_bytes_total",
				Help: "Total number of file bytes decoded or encoded",
			},
			[]string{"direction"},
		),

		codecVariablesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nexkit_codec_variables_total",
				Help: "Total number of variables decoded or encoded",
			},
			[]string{"kind", "direction"},
		),

		metadataFailuresTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "nexkit_metadata_failures_total",
				Help: "Total number of .nex5 metadata blocks that could not be parsed",
			},
		),

		archiveRecordings: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "nexkit_archive_recordings",
				Help: "Number of recordings in the archive",
			},
		),

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nexkit_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nexkit_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
	}
}

// RecordCodecOperation records a whole-file read or write
func (m *Metrics) RecordCodecOperation(operation, format string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	status := statusSuccess
	if !success {
		status = statusError
	}

	m.codecOperationsTotal.WithLabelValues(operation, format, status).Inc()
	m.codecOperationDuration.WithLabelValues(operation, format).Observe(duration.Seconds())
}

// AddBytes counts bytes decoded or encoded
func (m *Metrics) AddBytes(direction string, n int) {
	if m == nil {
		return
	}
	m.codecBytesTotal.WithLabelValues(direction).Add(float64(n))
}

// AddVariables counts variables of one kind decoded or encoded
func (m *Metrics) AddVariables(kind, direction string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.codecVariablesTotal.WithLabelValues(kind, direction).Add(float64(n))
}

// RecordMetadataFailure counts a metadata block that was ignored
func (m *Metrics) RecordMetadataFailure() {
	if m == nil {
		return
	}
	m.metadataFailuresTotal.Inc()
}

// SetArchiveRecordings updates the archive size gauge
func (m *Metrics) SetArchiveRecordings(n int) {
	if m == nil {
		return
	}
	m.archiveRecordings.Set(float64(n))
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	statusCodeStr := strconv.Itoa(statusCode)

	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCodeStr).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
