// Package metrics provides Prometheus metrics for the telegram-drive core.
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
	// Transport metrics
	transportRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tgdrive_transport_requests_total",
			Help: "Total number of transport round trips",
		},
		[]string{"op", "status"},
	)

	transportRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tgdrive_transport_request_duration_seconds",
			Help:    "Transport round trip duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	bytesUploaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tgdrive_bytes_uploaded_total",
			Help: "Total payload bytes appended to the log",
		},
	)

	// Page decode metrics
	entriesDecoded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tgdrive_entries_decoded_total",
			Help: "Log entries decoded per page fetch",
		},
		[]string{"kind"},
	)

	decodeSkips = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tgdrive_decode_skips_total",
			Help: "Log entries skipped because they decode to no known record shape",
		},
	)

	pageFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tgdrive_page_fetch_duration_seconds",
			Help:    "Time to fetch and decode one page of log entries",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Navigation metrics
	staleResultsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tgdrive_stale_results_dropped_total",
			Help: "Fetch results discarded because the user navigated away first",
		},
	)

	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tgdrive_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tgdrive_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// SSE metrics
	sseConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tgdrive_sse_connections_active",
			Help: "Currently connected SSE subscribers",
		},
	)

	sseEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tgdrive_sse_events_total",
			Help: "Events published to SSE subscribers",
		},
		[]string{"type"},
	)
)

// RecordTransportRequest records one transport round trip.
func RecordTransportRequest(op string, err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	transportRequestsTotal.WithLabelValues(op, status).Inc()
	transportRequestDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordBytesUploaded adds to the uploaded bytes counter.
func RecordBytesUploaded(n int64) {
	bytesUploaded.Add(float64(n))
}

// RecordEntryDecoded records a successfully decoded entry of the given kind.
func RecordEntryDecoded(kind string) {
	entriesDecoded.WithLabelValues(kind).Inc()
}

// RecordDecodeSkip records an entry skipped during page decode.
func RecordDecodeSkip() {
	decodeSkips.Inc()
}

// RecordPageFetch records the duration of one page fetch and decode.
func RecordPageFetch(duration time.Duration) {
	pageFetchDuration.Observe(duration.Seconds())
}

// RecordStaleResultDropped records a discarded stale fetch result.
func RecordStaleResultDropped() {
	staleResultsDropped.Inc()
}

// SetSSEConnectionsActive sets the active SSE subscriber gauge.
func SetSSEConnectionsActive(n int64) {
	sseConnectionsActive.Set(float64(n))
}

// RecordSSEEvent records a published SSE event.
func RecordSSEEvent(eventType string) {
	sseEventsTotal.WithLabelValues(eventType).Inc()
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// InstrumentHandler wraps an HTTP handler with request metrics.
func InstrumentHandler(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
