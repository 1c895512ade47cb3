// Package types
package types

import (
	"fmt"
	"time"
)

type SensorType string

const (
	SensorTypeTemperature SensorType = "temperature"
	SensorTypeHumidity    SensorType = "humidity"
	SensorTypePressure    SensorType = "pressure"
	SensorTypeCO2         SensorType = "co2"
	SensorTypeLuminosity  SensorType = "luminosity"
	SensorTypeBattery     SensorType = "battery"
	SensorTypeNoise       SensorType = "noise"
)

var ErrInvalidSensorType = fmt.Errorf("invalid sensor type")

func ToSensorType(sensorType string) (SensorType, error) {
	switch st := SensorType(sensorType); st {
	case SensorTypeTemperature, SensorTypeHumidity, SensorTypePressure,
		SensorTypeCO2, SensorTypeLuminosity, SensorTypeBattery, SensorTypeNoise:
		return st, nil
	default:
		return "", ErrInvalidSensorType
	}
}

// Reading is one sensor observation. It is passed by value and never
// modified after construction.
type Reading struct {
	SensorID   int        `json:"sensor_id"`
	SensorType SensorType `json:"sensor_type"`
	Value      float64    `json:"value"`
	Unit       string     `json:"unit"`
	Timestamp  time.Time  `json:"timestamp"`
}

func (r Reading) String() string {
	return fmt.Sprintf("%s (ID:%d): %.1f%s", r.SensorType, r.SensorID, r.Value, r.Unit)
}

// SensorSpec describes one entry of the sensor roster.
type SensorSpec struct {
	ID              int        `yaml:"id"`
	Type            SensorType `yaml:"type"`
	Min             float64    `yaml:"min"`
	Max             float64    `yaml:"max"`
	Unit            string     `yaml:"unit"`
	IntervalSeconds float64    `yaml:"interval_seconds"`
}

func (s SensorSpec) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds * float64(time.Second))
}

func (s SensorSpec) Validate() error {
	if _, err := ToSensorType(string(s.Type)); err != nil {
		return fmt.Errorf("sensor %d: %w: %q", s.ID, err, s.Type)
	}
	if s.Min >= s.Max {
		return fmt.Errorf("sensor %d: min %.2f must be below max %.2f", s.ID, s.Min, s.Max)
	}
	if s.Interval() <= 0 {
		return fmt.Errorf("sensor %d: interval must be positive", s.ID)
	}
	return nil
}

// Aggregate is the statistics snapshot of a sensor's history window.
// Count == 0 means there is no data and the other fields are meaningless.
type Aggregate struct {
	Count     int       `json:"count"`
	Last      float64   `json:"last"`
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
	Avg       float64   `json:"avg"`
	StdDev    float64   `json:"std_dev"`
	Timestamp time.Time `json:"timestamp"`
}

func (a Aggregate) HasData() bool {
	return a.Count > 0
}
