package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheWriteLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:      "cache_write_latency_seconds",
		Namespace: TelemetryNamespace,
		Buckets:   prometheus.DefBuckets,
		Help:      "The latency of snapshot cache write operations in seconds.",
	}, []string{"cache"})
)
