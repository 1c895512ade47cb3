package cache

import (
	"time"

	"github.com/ntentasd/nostradamus-telemetry/internal/metrics"
)

type CacheMetrics struct {
	driver string
}

func NewCacheMetrics(driver string) *CacheMetrics {
	return &CacheMetrics{
		driver,
	}
}

// RecordWrite logs cache write latency since start
func (cm *CacheMetrics) RecordWrite(start time.Time) {
	metrics.CacheWriteLatencySeconds.WithLabelValues(cm.driver).Observe(time.Since(start).Seconds())
}
