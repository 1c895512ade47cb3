package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReadingsGeneratedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name:      "readings_generated_total",
		Namespace: TelemetryNamespace,
		Help:      "The total number of readings produced per sensor.",
	}, []string{"sensor"})

	SensorLagTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name:      "sensor_lag_total",
		Namespace: TelemetryNamespace,
		Help:      "The number of ticks whose processing exceeded the sensor interval.",
	}, []string{"sensor"})

	SensorFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name:      "sensor_failures_total",
		Namespace: TelemetryNamespace,
		Help:      "The number of sensor loops terminated by an error.",
	}, []string{"sensor"})

	SensorsRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name:      "sensors_running",
		Namespace: TelemetryNamespace,
		Help:      "The number of sensor loops currently running.",
	})
)
