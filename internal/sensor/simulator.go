// Package sensor simulates individual sensors emitting readings on their
// own schedule.
package sensor

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/ntentasd/nostradamus-telemetry/internal/metrics"
	"github.com/ntentasd/nostradamus-telemetry/internal/stats"
	"github.com/ntentasd/nostradamus-telemetry/pkg/types"
	"github.com/rs/zerolog"
)

var ErrInvalidValue = errors.New("simulated value is not a number")

// Enqueuer accepts readings produced by a simulator.
type Enqueuer interface {
	Enqueue(types.Reading)
}

// Simulator owns the state of one sensor. Everything except the running
// flag is touched only by the goroutine executing Run.
type Simulator struct {
	spec    types.SensorSpec
	queue   Enqueuer
	history *stats.Window
	logger  zerolog.Logger
	label   string

	rng     *rand.Rand
	current float64
	drift   float64

	running atomic.Bool
	ticks   atomic.Uint64
}

func New(spec types.SensorSpec, q Enqueuer, historySize int, logger zerolog.Logger) *Simulator {
	seed := uint64(time.Now().UnixNano())
	return newSimulator(spec, q, historySize, logger, rand.New(rand.NewPCG(seed, uint64(spec.ID))))
}

func newSimulator(spec types.SensorSpec, q Enqueuer, historySize int, logger zerolog.Logger, rng *rand.Rand) *Simulator {
	s := &Simulator{
		spec:    spec,
		queue:   q,
		history: stats.NewWindow(historySize),
		label:   strconv.Itoa(spec.ID),
		logger: logger.With().
			Str("unit", fmt.Sprintf("sensor-%d", spec.ID)).
			Str("sensor_type", string(spec.Type)).
			Logger(),
		rng:     rng,
		current: spec.Min + rng.Float64()*(spec.Max-spec.Min),
		drift:   uniform(rng, -0.1, 0.1),
	}
	s.running.Store(true)
	return s
}

func (s *Simulator) ID() int { return s.spec.ID }
func (s *Simulator) Type() types.SensorType { return s.spec.Type }
func (s *Simulator) Unit() string { return s.spec.Unit }
func (s *Simulator) Spec() types.SensorSpec { return s.spec }
func (s *Simulator) Running() bool { return s.running.Load() }
func (s *Simulator) Ticks() uint64 { return s.ticks.Load() }
func (s *Simulator) HistoryLen() int { return s.history.Len() }
func (s *Simulator) History() []types.Reading { return s.history.Readings() }

// Statistics returns a snapshot of the current history window.
func (s *Simulator) Statistics() types.Aggregate {
	return s.history.Snapshot()
}

// Stop asks the loop to exit. It is observed on the loop's next wake.
func (s *Simulator) Stop() {
	s.running.Store(false)
}

// Run emits one reading per interval until Stop is called or a tick fails.
func (s *Simulator) Run() {
	metrics.SensorsRunning.Inc()
	defer metrics.SensorsRunning.Dec()

	interval := s.spec.Interval()
	s.logger.Info().
		Dur("interval", interval).
		Float64("min", s.spec.Min).
		Float64("max", s.spec.Max).
		Msg("sensor started")

	defer func() {
		s.logger.Info().Uint64("readings", s.ticks.Load()).Msg("sensor stopped")
	}()

	for s.running.Load() {
		start := time.Now()

		if err := s.safeTick(); err != nil {
			metrics.SensorFailuresTotal.WithLabelValues(s.label).Inc()
			s.logger.Error().Err(err).Msg("sensor loop terminated")
			return
		}

		elapsed := time.Since(start)
		if wait := interval - elapsed; wait > 0 {
			time.Sleep(wait)
			continue
		}
		metrics.SensorLagTotal.WithLabelValues(s.label).Inc()
		s.logger.Warn().Dur("elapsed", elapsed).Msg("sensor is lagging behind its interval")
	}
}

func (s *Simulator) safeTick() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tick panicked: %v", r)
		}
	}()
	_, err = s.tick()
	return err
}

func (s *Simulator) tick() (types.Reading, error) {
	value, err := s.next()
	if err != nil {
		return types.Reading{}, err
	}

	r := types.Reading{
		SensorID:   s.spec.ID,
		SensorType: s.spec.Type,
		Value:      value,
		Unit:       s.spec.Unit,
		Timestamp:  time.Now(),
	}

	s.history.Append(r)
	s.queue.Enqueue(r)

	n := s.ticks.Add(1)
	metrics.ReadingsGeneratedTotal.WithLabelValues(s.label).Inc()
	s.logger.Debug().Uint64("reading", n).Float64("value", value).Str("sensor_unit", s.spec.Unit).Msg("reading emitted")

	return r, nil
}

// next advances the bounded random walk and returns the rounded value.
func (s *Simulator) next() (float64, error) {
	s.current += uniform(s.rng, -0.5, 0.5) + s.drift
	s.current = clamp(s.current, s.spec.Min, s.spec.Max)
	if math.IsNaN(s.current) {
		return 0, ErrInvalidValue
	}
	return clamp(math.Round(s.current*10)/10, s.spec.Min, s.spec.Max), nil
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
