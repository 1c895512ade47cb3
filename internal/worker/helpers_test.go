package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ntentasd/nostradamus-telemetry/internal/store"
	"github.com/ntentasd/nostradamus-telemetry/pkg/types"
)

var errDiskFull = errors.New("no space left on device")

// flakyStore fails the next `failures` writes and then behaves like a
// memory store.
type flakyStore struct {
	*store.MemoryStore
	mu       sync.Mutex
	failures int
}

func (f *flakyStore) WriteAll(ctx context.Context, readings []types.Reading) error {
	f.mu.Lock()
	if f.failures > 0 {
		f.failures--
		f.mu.Unlock()
		return errDiskFull
	}
	f.mu.Unlock()
	return f.MemoryStore.WriteAll(ctx, readings)
}

type recordingSink struct {
	name string
	err  error

	mu      sync.Mutex
	batches [][]types.Reading
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Publish(_ context.Context, readings []types.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, readings)
	return s.err
}

func (s *recordingSink) Batches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func readingsFrom(start, n int) []types.Reading {
	ts := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	out := make([]types.Reading, n)
	for i := range out {
		v := start + i
		out[i] = types.Reading{
			SensorID:   1,
			SensorType: types.SensorTypeTemperature,
			Value:      float64(v),
			Unit:       "°C",
			Timestamp:  ts.Add(time.Duration(v) * time.Millisecond),
		}
	}
	return out
}

func values(readings []types.Reading) []float64 {
	out := make([]float64, len(readings))
	for i, r := range readings {
		out[i] = r.Value
	}
	return out
}
