// Package metrics provides Prometheus metrics for the xenium commands.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xenium_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "xenium_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Catalog metrics
	catalogLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xenium_catalog_loads_total",
			Help: "Total catalog load attempts",
		},
		[]string{"status"},
	)

	catalogLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "xenium_catalog_load_duration_seconds",
			Help:    "Time to fetch and decode the catalog document",
			Buckets: prometheus.DefBuckets,
		},
	)

	catalogFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "xenium_catalog_files",
			Help: "Number of file records in the published catalog",
		},
	)

	// Filter metrics
	filterPassesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "xenium_filter_passes_total",
			Help: "Total filter recomputations",
		},
	)

	filterDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "xenium_filter_duration_seconds",
			Help:    "Filter pass duration in seconds",
			Buckets: []float64{.00001, .0001, .001, .01, .1},
		},
	)

	// Clipboard metrics
	copiesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xenium_copies_total",
			Help: "Total copy actions by method and status",
		},
		[]string{"method", "status"},
	)

	// Event metrics
	eventSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "xenium_event_subscribers",
			Help: "Number of catalog event subscribers",
		},
	)

	eventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xenium_events_total",
			Help: "Total catalog events published",
		},
		[]string{"type"},
	)

	// Indexer metrics
	indexedObjectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xenium_index_objects_total",
			Help: "Objects seen by the indexer by outcome",
		},
		[]string{"source", "outcome"},
	)

	indexLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "xenium_index_last_success_timestamp_seconds",
			Help: "Unix time of the last successful index run",
		},
	)

	// S3 metrics
	s3OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "xenium_s3_operation_duration_seconds",
			Help:    "S3 operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	s3OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xenium_s3_operations_total",
			Help: "Total S3 operations",
		},
		[]string{"operation", "status"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// WriteTextfile writes the default registry to path in the text exposition
// format, for node_exporter's textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(code)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordCatalogLoad records a catalog load attempt.
func RecordCatalogLoad(duration time.Duration, success bool) {
	catalogLoadsTotal.WithLabelValues(status(success)).Inc()
	catalogLoadDuration.Observe(duration.Seconds())
}

// SetCatalogFiles sets the size of the published catalog.
func SetCatalogFiles(n int) {
	catalogFiles.Set(float64(n))
}

// RecordFilterPass records one filter recomputation.
func RecordFilterPass(duration time.Duration) {
	filterPassesTotal.Inc()
	filterDuration.Observe(duration.Seconds())
}

// RecordCopy records a copy action.
func RecordCopy(method string, success bool) {
	copiesTotal.WithLabelValues(method, status(success)).Inc()
}

// SetEventSubscribers sets the number of event subscribers.
func SetEventSubscribers(count int64) {
	eventSubscribers.Set(float64(count))
}

// RecordEvent records a published catalog event.
func RecordEvent(eventType string) {
	eventsTotal.WithLabelValues(eventType).Inc()
}

// RecordIndexedObject records an object seen by the indexer.
// outcome is one of "kept", "skipped", "ignored".
func RecordIndexedObject(source, outcome string) {
	indexedObjectsTotal.WithLabelValues(source, outcome).Inc()
}

// SetIndexLastSuccess marks the time of a successful index run.
func SetIndexLastSuccess(t time.Time) {
	indexLastSuccess.Set(float64(t.Unix()))
}

// RecordS3Operation records an S3 operation.
func RecordS3Operation(operation string, duration time.Duration, success bool) {
	s3OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	s3OperationsTotal.WithLabelValues(operation, status(success)).Inc()
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware returns HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		RecordHTTPRequest(r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}
