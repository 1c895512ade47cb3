package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/ntentasd/nostradamus-telemetry/internal/cache"
	"github.com/ntentasd/nostradamus-telemetry/pkg/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSensor struct {
	id      int
	typ     types.SensorType
	unit    string
	agg     types.Aggregate
	history int
	broken  bool
}

func (s stubSensor) ID() int { return s.id }
func (s stubSensor) Type() types.SensorType { return s.typ }
func (s stubSensor) Unit() string { return s.unit }
func (s stubSensor) HistoryLen() int { return s.history }

func (s stubSensor) Statistics() types.Aggregate {
	if s.broken {
		panic("sensor removed")
	}
	return s.agg
}

type stubDepth int

func (d stubDepth) Len() int { return int(d) }

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCache) StoreSnapshot(_ context.Context, key string, data any, ttl time.Duration) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = b
	m.ttls[key] = ttl
	return nil
}

func (m *memoryCache) get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	return b, ok
}

func (m *memoryCache) Ping(context.Context) error { return nil }
func (m *memoryCache) Close() {}

func withLast(last float64) types.Aggregate {
	return types.Aggregate{Count: 5, Last: last, Min: last - 1, Max: last + 1, Avg: last}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		typ  types.SensorType
		agg  types.Aggregate
		want Status
	}{
		{"no data", types.SensorTypeTemperature, types.Aggregate{}, StatusNoData},
		{"hot", types.SensorTypeTemperature, withLast(30.1), StatusHighTemperature},
		{"temperature at threshold", types.SensorTypeTemperature, withLast(30.0), StatusOK},
		{"co2 elevated", types.SensorTypeCO2, withLast(1250), StatusElevatedCO2},
		{"co2 normal", types.SensorTypeCO2, withLast(1200), StatusOK},
		{"battery low", types.SensorTypeBattery, withLast(19.9), StatusLowBattery},
		{"battery fine", types.SensorTypeBattery, withLast(20), StatusOK},
		{"humidity ignores thresholds", types.SensorTypeHumidity, withLast(99), StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.typ, tt.agg))
		})
	}
}

func TestCollectSummarisesSensors(t *testing.T) {
	sensors := []SensorSource{
		stubSensor{id: 1, typ: types.SensorTypeTemperature, unit: "°C", agg: withLast(31), history: 40},
		stubSensor{id: 6, typ: types.SensorTypeBattery, unit: "%", history: 0},
	}
	r := NewReporter(sensors, stubDepth(12), &bytes.Buffer{}, time.Hour, nil, zerolog.Nop())

	rep := r.Collect()
	require.Len(t, rep.Lines, 2)
	assert.Equal(t, StatusHighTemperature, rep.Lines[0].Status)
	assert.Equal(t, StatusNoData, rep.Lines[1].Status)
	assert.Equal(t, 40, rep.TotalReadings)
	assert.Equal(t, 12, rep.QueueDepth)
}

func TestCollectSkipsFailingSensor(t *testing.T) {
	sensors := []SensorSource{
		stubSensor{id: 1, typ: types.SensorTypeNoise, unit: "dB", agg: withLast(50), history: 3},
		stubSensor{id: 2, typ: types.SensorTypeNoise, broken: true},
		stubSensor{id: 3, typ: types.SensorTypeNoise, unit: "dB", agg: withLast(60), history: 4},
	}
	r := NewReporter(sensors, stubDepth(0), &bytes.Buffer{}, time.Hour, nil, zerolog.Nop())

	rep := r.Collect()
	require.Len(t, rep.Lines, 2)
	assert.Equal(t, 1, rep.Lines[0].SensorID)
	assert.Equal(t, 3, rep.Lines[1].SensorID)
	assert.Equal(t, 7, rep.TotalReadings)
}

func TestRenderReport(t *testing.T) {
	rep := Report{
		GeneratedAt: time.Date(2026, 10, 15, 14, 30, 0, 0, time.UTC),
		Lines: []SensorLine{
			{SensorID: 4, SensorType: types.SensorTypeCO2, Unit: "ppm", Stats: withLast(1300), Status: StatusElevatedCO2},
			{SensorID: 6, SensorType: types.SensorTypeBattery, Unit: "%", Status: StatusNoData},
		},
		TotalReadings: 5,
		QueueDepth:    2,
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, rep))
	out := buf.String()

	assert.Contains(t, out, "SENSOR STATISTICS - 2026-10-15 14:30:00")
	assert.Contains(t, out, "Sensor co2 (ID:4):")
	assert.Contains(t, out, "Last value: 1300.00ppm")
	assert.Contains(t, out, "Readings: 5 | Status: ALERT: ELEVATED CO2")
	assert.Contains(t, out, "Last value: N/A")
	assert.Contains(t, out, "Status: NO DATA")
	assert.Contains(t, out, "Total readings: 5 | Queued readings: 2")
}

func TestReportOncePublishesSnapshots(t *testing.T) {
	snapshots := newMemoryCache()
	sensors := []SensorSource{
		stubSensor{id: 2, typ: types.SensorTypeHumidity, unit: "%", agg: withLast(55), history: 5},
	}
	var buf bytes.Buffer
	r := NewReporter(sensors, stubDepth(0), &buf, time.Second, snapshots, zerolog.Nop())

	r.ReportOnce(context.Background())

	b, ok := snapshots.get(cache.SnapshotKey(2))
	require.True(t, ok)

	var line SensorLine
	require.NoError(t, json.Unmarshal(b, &line))
	assert.Equal(t, StatusOK, line.Status)
	assert.Equal(t, 55.0, line.Stats.Last)
	assert.Equal(t, 3*time.Second, snapshots.ttls[cache.SnapshotKey(2)])
	assert.Contains(t, buf.String(), "Sensor humidity (ID:2):")
}

func TestReporterLoop(t *testing.T) {
	var mu sync.Mutex
	var buf bytes.Buffer
	w := writerFunc(func(p []byte) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		return buf.Write(p)
	})

	r := NewReporter([]SensorSource{stubSensor{id: 1, typ: types.SensorTypeNoise, unit: "dB"}}, stubDepth(0), w, 10*time.Millisecond, nil, zerolog.Nop())
	r.Start(context.Background())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return bytes.Contains(buf.Bytes(), []byte("SENSOR STATISTICS"))
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, r.Stop(context.Background()))
	require.NoError(t, r.Stop(context.Background()))
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
