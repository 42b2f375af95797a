package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SyncItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_sync_items_total",
			Help: "Mail items processed by sync, by outcome",
		},
		[]string{"status"}, // synced, fetch_failed, store_failed, embed_failed, index_failed
	)

	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mail_sync_duration_seconds",
			Help:    "Duration of a full sync run in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~4m
		},
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_stage_duration_seconds",
			Help:    "Retrieval pipeline stage duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"stage"},
	)

	VectorIndexOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vector_index_ops_total",
			Help: "Vector index operations by backend and outcome",
		},
		[]string{"backend", "op", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)
)

func RecordSyncItem(status string) {
	SyncItems.WithLabelValues(status).Inc()
}

func RecordStage(stage string, d time.Duration) {
	PipelineStageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func RecordIndexOp(backend, op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	VectorIndexOps.WithLabelValues(backend, op, status).Inc()
}

func RecordHTTPRequest(method, path, status string, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
}
