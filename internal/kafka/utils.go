package kafka

import (
	"fmt"

	"github.com/ntentasd/nostradamus-telemetry/pkg/types"
)

var topicPrefixes = map[types.SensorType]string{
	types.SensorTypeTemperature: "temperatures_",
	types.SensorTypeHumidity:    "humidities_",
	types.SensorTypePressure:    "pressures_",
	types.SensorTypeCO2:         "co2_levels_",
	types.SensorTypeLuminosity:  "luminosities_",
	types.SensorTypeBattery:     "battery_levels_",
	types.SensorTypeNoise:       "noise_levels_",
}

// TopicFor returns the per-sensor topic a reading is published to.
func TopicFor(r types.Reading) (string, error) {
	prefix, ok := topicPrefixes[r.SensorType]
	if !ok {
		return "", fmt.Errorf("%w: %q", types.ErrInvalidSensorType, r.SensorType)
	}
	return fmt.Sprintf("%s%d", prefix, r.SensorID), nil
}
