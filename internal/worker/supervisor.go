// Package worker runs the long-lived units of the telemetry pipeline.
package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ntentasd/nostradamus-telemetry/internal/cache"
	"github.com/ntentasd/nostradamus-telemetry/internal/queue"
	"github.com/ntentasd/nostradamus-telemetry/internal/sensor"
	"github.com/ntentasd/nostradamus-telemetry/internal/store"
	"github.com/ntentasd/nostradamus-telemetry/pkg/types"
	"github.com/rs/zerolog"
)

const DefaultShutdownTimeout = 30 * time.Second

type Options struct {
	Roster          []types.SensorSpec
	HistorySize     int
	SensorStagger   time.Duration
	FlushInterval   time.Duration
	ReportInterval  time.Duration
	MaxRecords      int
	ShutdownTimeout time.Duration
	ReportOutput    io.Writer
}

// Supervisor owns the lifecycle of the sensors, the persister and the
// reporter. One goroutine runs per sensor, so the roster is expected to stay
// in the dozens.
type Supervisor struct {
	opts      Options
	queue     *queue.ReadingQueue
	sensors   []*sensor.Simulator
	persister *Persister
	reporter  *Reporter
	logger    zerolog.Logger

	wg       sync.WaitGroup
	stopping chan struct{}

	// stopMu serializes Stop calls and guards the fields below.
	stopMu   sync.Mutex
	stopped  bool
	stopErr  error
	flushErr error
}

// NewSupervisor creates one simulator per roster entry plus the persister
// and reporter, all sharing q. snapshots may be nil.
func NewSupervisor(opts Options, q *queue.ReadingQueue, st store.Store, snapshots cache.Cache, logger zerolog.Logger, sinks ...Sink) *Supervisor {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	if opts.ReportOutput == nil {
		opts.ReportOutput = io.Discard
	}

	s := &Supervisor{
		opts:     opts,
		queue:    q,
		logger:   logger.With().Str("unit", "supervisor").Logger(),
		stopping: make(chan struct{}),
	}

	sources := make([]SensorSource, 0, len(opts.Roster))
	for _, spec := range opts.Roster {
		sim := sensor.New(spec, q, opts.HistorySize, logger)
		s.sensors = append(s.sensors, sim)
		sources = append(sources, sim)
		s.logger.Info().
			Int("sensor_id", spec.ID).
			Str("sensor_type", string(spec.Type)).
			Str("range", fmt.Sprintf("%.1f%s..%.1f%s", spec.Min, spec.Unit, spec.Max, spec.Unit)).
			Msg("sensor created")
	}

	s.persister = NewPersister(q, st, opts.FlushInterval, opts.MaxRecords, logger, sinks...)
	s.reporter = NewReporter(sources, q, opts.ReportOutput, opts.ReportInterval, snapshots, logger)

	return s
}

func (s *Supervisor) Sensors() []*sensor.Simulator { return s.sensors }
func (s *Supervisor) Persister() *Persister { return s.persister }
func (s *Supervisor) Reporter() *Reporter { return s.reporter }

func (s *Supervisor) QueueDepth() int { return s.queue.Len() }
func (s *Supervisor) Flushed() uint64 { return s.persister.Flushed() }

// SensorsRunning counts sensors whose loop has not been asked to stop.
func (s *Supervisor) SensorsRunning() int {
	n := 0
	for _, sim := range s.sensors {
		if sim.Running() {
			n++
		}
	}
	return n
}

// Start launches the persister, the reporter and every sensor. Sensor starts
// are staggered so they do not all tick at once.
func (s *Supervisor) Start(ctx context.Context) {
	s.persister.Start(ctx)
	s.reporter.Start(ctx)

	for i, sim := range s.sensors {
		s.wg.Add(1)
		go func(delay time.Duration) {
			defer s.wg.Done()
			if delay > 0 {
				select {
				case <-time.After(delay):
				case <-s.stopping:
					return
				}
			}
			sim.Run()
		}(time.Duration(i) * s.opts.SensorStagger)
	}

	s.logger.Info().Int("sensors", len(s.sensors)).Msg("monitoring started")
}

// Run starts every unit, blocks until ctx is cancelled and then shuts the
// pipeline down within the configured shutdown timeout.
func (s *Supervisor) Run(ctx context.Context) error {
	s.Start(ctx)
	<-ctx.Done()
	s.logger.Info().Msg("shutdown requested")

	stopCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	return s.Stop(stopCtx)
}

// Stop stops the sensors, waits for them, flushes everything still queued
// and stops the reporter. Concurrent callers wait for each other. Once the
// pipeline is stopped, a later call only retries a final flush that failed.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.stopMu.Lock()
	defer s.stopMu.Unlock()

	if !s.stopped {
		s.stopped = true
		s.shutdown(ctx)
	} else if s.flushErr != nil {
		s.logger.Info().Int("pending", s.persister.Pending()).Msg("retrying final flush")
		s.flushErr = s.finalFlush(ctx)
	}

	return errors.Join(s.stopErr, s.flushErr)
}

func (s *Supervisor) shutdown(ctx context.Context) {
	s.logger.Info().Msg("stopping monitoring")
	close(s.stopping)

	for _, sim := range s.sensors {
		sim.Stop()
	}

	var errs []error

	sensorsDone := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(sensorsDone)
	}()
	select {
	case <-sensorsDone:
	case <-ctx.Done():
		err := fmt.Errorf("sensors did not stop in time: %w", ctx.Err())
		s.logger.Error().Err(err).Msg("continuing shutdown")
		errs = append(errs, err)
	}

	s.flushErr = s.finalFlush(ctx)

	if err := s.reporter.Stop(ctx); err != nil {
		s.logger.Error().Err(err).Msg("reporter shutdown failed")
		errs = append(errs, err)
	}

	s.logger.Info().
		Uint64("enqueued", s.queue.Enqueued()).
		Uint64("flushed", s.persister.Flushed()).
		Int("pending", s.persister.Pending()).
		Msg("monitoring stopped")

	s.stopErr = errors.Join(errs...)
}

// finalFlush runs even when ctx has expired.
func (s *Supervisor) finalFlush(ctx context.Context) error {
	if err := s.persister.Stop(context.WithoutCancel(ctx)); err != nil {
		s.logger.Error().Err(err).Int("pending", s.persister.Pending()).Msg("final flush failed")
		return err
	}
	return nil
}
