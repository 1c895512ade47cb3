// Package stats keeps the rolling history of a sensor and derives
// statistics snapshots from it.
package stats

import (
	"time"

	"github.com/ntentasd/nostradamus-telemetry/pkg/types"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Compute derives an aggregate from values in time order. The standard
// deviation is the sample deviation and is 0 for fewer than two values.
func Compute(values []float64, at time.Time) types.Aggregate {
	if len(values) == 0 {
		return types.Aggregate{Timestamp: at}
	}

	agg := types.Aggregate{
		Count:     len(values),
		Last:      values[len(values)-1],
		Min:       floats.Min(values),
		Max:       floats.Max(values),
		Avg:       stat.Mean(values, nil),
		Timestamp: at,
	}
	if len(values) > 1 {
		agg.StdDev = stat.StdDev(values, nil)
	}

	return agg
}
