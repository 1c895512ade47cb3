package sensor

import (
	"math"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/ntentasd/nostradamus-telemetry/pkg/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu       sync.Mutex
	readings []types.Reading
}

func (r *recorder) Enqueue(reading types.Reading) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readings = append(r.readings, reading)
}

func (r *recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.readings)
}

type panickingQueue struct{}

func (panickingQueue) Enqueue(types.Reading) { panic("queue unavailable") }

func testSpec(min, max float64) types.SensorSpec {
	return types.SensorSpec{
		ID:              7,
		Type:            types.SensorTypeNoise,
		Min:             min,
		Max:             max,
		Unit:            "dB",
		IntervalSeconds: 0.01,
	}
}

func newTestSimulator(spec types.SensorSpec, q Enqueuer, seed uint64) *Simulator {
	return newSimulator(spec, q, 100, zerolog.Nop(), rand.New(rand.NewPCG(seed, seed+1)))
}

func TestValuesStayWithinBounds(t *testing.T) {
	for seed := range uint64(20) {
		q := &recorder{}
		s := newTestSimulator(testSpec(30.0, 31.0), q, seed)

		for range 2000 {
			r, err := s.tick()
			require.NoError(t, err)
			require.GreaterOrEqual(t, r.Value, 30.0)
			require.LessOrEqual(t, r.Value, 31.0)
		}
	}
}

func TestValuesAreRoundedToOneDecimal(t *testing.T) {
	s := newTestSimulator(testSpec(0, 100), &recorder{}, 3)
	for range 200 {
		r, err := s.tick()
		require.NoError(t, err)
		assert.InDelta(t, math.Round(r.Value*10)/10, r.Value, 1e-9)
	}
}

func TestHistoryKeepsMostRecentHundred(t *testing.T) {
	q := &recorder{}
	s := newTestSimulator(testSpec(0, 100), q, 1)

	for range 250 {
		_, err := s.tick()
		require.NoError(t, err)
	}

	require.Equal(t, 100, s.HistoryLen())
	require.Equal(t, 250, q.Len())

	history := s.History()
	assert.Equal(t, q.readings[150:], history)
	for i := 1; i < len(history); i++ {
		assert.False(t, history[i].Timestamp.Before(history[i-1].Timestamp))
	}

	agg := s.Statistics()
	assert.Equal(t, 100, agg.Count)
	assert.Equal(t, history[99].Value, agg.Last)
}

func TestReadingCarriesSensorIdentity(t *testing.T) {
	q := &recorder{}
	s := newTestSimulator(testSpec(0, 1), q, 9)

	r, err := s.tick()
	require.NoError(t, err)

	assert.Equal(t, 7, r.SensorID)
	assert.Equal(t, types.SensorTypeNoise, r.SensorType)
	assert.Equal(t, "dB", r.Unit)
	assert.False(t, r.Timestamp.IsZero())
	assert.EqualValues(t, 1, s.Ticks())
}

func TestRunStopsAfterStop(t *testing.T) {
	q := &recorder{}
	s := newTestSimulator(testSpec(0, 100), q, 5)

	done := make(chan struct{})
	go func() {
		s.Run()
		close(done)
	}()

	require.Eventually(t, func() bool { return q.Len() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("simulator did not stop")
	}

	assert.False(t, s.Running())
	assert.EqualValues(t, q.Len(), s.Ticks())
}

func TestRunExitsOnTickFailure(t *testing.T) {
	s := newTestSimulator(testSpec(0, 100), panickingQueue{}, 5)

	done := make(chan struct{})
	go func() {
		s.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("failing simulator kept running")
	}
	assert.EqualValues(t, 0, s.Ticks())
}

func TestNewStartsWithinBounds(t *testing.T) {
	spec := testSpec(980, 1030)
	s := New(spec, &recorder{}, 100, zerolog.Nop())

	assert.True(t, s.Running())
	assert.GreaterOrEqual(t, s.current, 980.0)
	assert.LessOrEqual(t, s.current, 1030.0)
	assert.InDelta(t, 0, s.drift, 0.1)
}
