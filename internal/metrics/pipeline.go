package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name:      "queue_depth",
		Namespace: TelemetryNamespace,
		Help:      "The number of readings waiting in the queue.",
	})

	PendingReadings = promauto.NewGauge(prometheus.GaugeOpts{
		Name:      "pending_readings",
		Namespace: TelemetryNamespace,
		Help:      "The number of drained readings waiting for a successful flush.",
	})

	FlushTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name:      "flush_total",
		Namespace: TelemetryNamespace,
		Help:      "The number of flush attempts by result.",
	}, []string{"result"})

	FlushLatencySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:      "flush_latency_seconds",
		Namespace: TelemetryNamespace,
		Buckets:   prometheus.DefBuckets,
		Help:      "The latency of durable store flushes in seconds.",
	})

	FlushedReadingsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name:      "flushed_readings_total",
		Namespace: TelemetryNamespace,
		Help:      "The total number of readings durably written.",
	})

	PersistedRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name:      "persisted_records",
		Namespace: TelemetryNamespace,
		Help:      "The number of records in the durable store after the last flush.",
	})

	ExportTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name:      "export_total",
		Namespace: TelemetryNamespace,
		Help:      "The number of batch exports by sink and result.",
	}, []string{"sink", "result"})

	ReportsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name:      "reports_total",
		Namespace: TelemetryNamespace,
		Help:      "The number of statistics reports emitted.",
	})

	AlertsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name:      "alerts_total",
		Namespace: TelemetryNamespace,
		Help:      "The number of alert statuses observed in reports.",
	}, []string{"status"})
)
