// Package telemetry exposes Prometheus metrics for the HTTP surface and
// the backing store, and logs requests slower than a fixed threshold.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"jurydb/pkg/logger"
)

var slowThreshold = 200 * time.Millisecond

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "jurydb",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by path and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"path", "method", "status"})

	RecordSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jurydb",
		Name:      "record_saves_total",
		Help:      "Record upserts by data-type and status.",
	}, []string{"type", "status"})

	UserDeletes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "jurydb",
		Name:      "user_deletes_total",
		Help:      "Bulk user deletions.",
	})

	ReconcileDrops = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "jurydb",
		Name:      "reconcile_dropped_index_entries_total",
		Help:      "Orphaned index entries dropped by the reconciler.",
	})

	storeDiskBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "jurydb",
		Name:      "store_disk_bytes",
		Help:      "On-disk size of the Pebble store.",
	})

	storeL0Files = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "jurydb",
		Name:      "store_l0_files",
		Help:      "Pebble L0 file count.",
	})
)

// SetStoreMetrics publishes a store metrics sample.
func SetStoreMetrics(diskBytes uint64, l0Files int) {
	storeDiskBytes.Set(float64(diskBytes))
	storeL0Files.Set(float64(l0Files))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Middleware records request latency and logs slow requests.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(srw, r)
		dur := time.Since(start)
		requestDuration.WithLabelValues(r.URL.Path, r.Method, strconv.Itoa(srw.status)).Observe(dur.Seconds())
		if dur > slowThreshold {
			logger.Warn("slow_request", "path", r.URL.Path, "method", r.Method, "status", srw.status, "duration_ms", dur.Milliseconds())
		}
	})
}
