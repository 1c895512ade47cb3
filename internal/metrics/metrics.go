// Package metrics holds the prometheus collectors of the telemetry pipeline.
package metrics

const TelemetryNamespace = "telemetry"
