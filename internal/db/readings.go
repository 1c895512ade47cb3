package db

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/ntentasd/nostradamus-telemetry/pkg/types"
)

// batchLimit keeps unlogged batches under the server's batch size warning.
const batchLimit = 100

var tables = map[types.SensorType]string{
	types.SensorTypeTemperature: "temperatures",
	types.SensorTypeHumidity:    "humidities",
	types.SensorTypePressure:    "pressures",
	types.SensorTypeCO2:         "co2_levels",
	types.SensorTypeLuminosity:  "luminosities",
	types.SensorTypeBattery:     "battery_levels",
	types.SensorTypeNoise:       "noise_levels",
}

// TableFor returns the table readings of sensorType are written to.
func TableFor(sensorType types.SensorType) (string, error) {
	table, ok := tables[sensorType]
	if !ok {
		return "", fmt.Errorf("%w: %q", types.ErrInvalidSensorType, sensorType)
	}
	return table, nil
}

// BucketDate is the day partition a reading belongs to.
func BucketDate(ts time.Time) time.Time {
	ts = ts.UTC()
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}

// Publish inserts every reading into its per-type table, day-bucketed.
func (db *DB) Publish(ctx context.Context, readings []types.Reading) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	for start := 0; start < len(readings); start += batchLimit {
		end := min(start+batchLimit, len(readings))

		batch := db.Data.NewBatch(gocql.UnloggedBatch).WithContext(ctx)
		for _, r := range readings[start:end] {
			table, err := TableFor(r.SensorType)
			if err != nil {
				return err
			}

			stmt := fmt.Sprintf(`
INSERT INTO %s.%s (sensor_id, bucket_date, timestamp, value, unit)
VALUES (?, ?, ?, ?, ?)
`, db.keyspace, table)
			batch.Query(stmt, r.SensorID, BucketDate(r.Timestamp), r.Timestamp, r.Value, r.Unit)
		}

		if err := db.Data.ExecuteBatch(batch); err != nil {
			return fmt.Errorf("failed to insert readings %d-%d: %w", start, end, err)
		}
	}

	return nil
}
