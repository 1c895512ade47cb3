package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/ntentasd/nostradamus-telemetry/internal/metrics"
	"github.com/ntentasd/nostradamus-telemetry/internal/store"
	"github.com/ntentasd/nostradamus-telemetry/pkg/types"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultFlushInterval = 60 * time.Second
	DefaultMaxRecords    = 10000
)

type PersisterState int32

const (
	StateIdle PersisterState = iota
	StateDraining
	StateFlushing
)

func (s PersisterState) String() string {
	switch s {
	case StateDraining:
		return "draining"
	case StateFlushing:
		return "flushing"
	default:
		return "idle"
	}
}

// Drainer is the consumer side of the reading queue.
type Drainer interface {
	Drain() []types.Reading
	Len() int
}

// Sink receives every batch after it was durably stored.
type Sink interface {
	Name() string
	Publish(ctx context.Context, readings []types.Reading) error
}

// Persister is the single consumer of the queue. It drains the queue on a
// fixed cadence and rewrites the durable store with the new batch appended.
type Persister struct {
	queue      Drainer
	store      store.Store
	sinks      []Sink
	interval   time.Duration
	maxRecords int
	logger     zerolog.Logger

	// mu serializes cycles and guards pending.
	mu      sync.Mutex
	pending []types.Reading

	state   atomic.Int32
	flushed atomic.Uint64

	cancelCtx context.CancelFunc
	done      chan struct{}
}

func NewPersister(q Drainer, st store.Store, interval time.Duration, maxRecords int, logger zerolog.Logger, sinks ...Sink) *Persister {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	return &Persister{
		queue:      q,
		store:      st,
		sinks:      sinks,
		interval:   interval,
		maxRecords: maxRecords,
		logger:     logger.With().Str("unit", "persister").Logger(),
	}
}

func (p *Persister) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancelCtx = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.logger.Info().Dur("interval", p.interval).Int("max_records", p.maxRecords).Msg("persister started")

		for {
			select {
			case <-ctx.Done():
				p.logger.Info().Msg("persister loop stopped")
				return
			case <-ticker.C:
				// the context only ends the loop; a started flush always completes
				if err := p.Cycle(context.WithoutCancel(ctx)); err != nil {
					p.logger.Error().Err(err).Msg("flush failed, batch kept for retry")
				}
			}
		}
	}()
}

// Stop ends the periodic loop, waits for an in-flight cycle and performs a
// final drain-and-flush. It may be called more than once; later calls only
// flush what is still queued or pending.
func (p *Persister) Stop(ctx context.Context) error {
	if p.cancelCtx != nil {
		p.cancelCtx()
		select {
		case <-p.done:
		case <-ctx.Done():
			return fmt.Errorf("persister loop did not stop: %w", ctx.Err())
		}
	}

	if err := p.Cycle(ctx); err != nil {
		return fmt.Errorf("final flush: %w", err)
	}
	p.logger.Info().Uint64("flushed", p.Flushed()).Msg("persister stopped")
	return nil
}

// Cycle runs one duty cycle: drain the queue and, if anything is pending,
// flush it. A failed flush leaves the readings pending, ahead of anything
// drained later.
func (p *Persister) Cycle(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer p.state.Store(int32(StateIdle))

	p.state.Store(int32(StateDraining))
	p.pending = append(p.pending, p.queue.Drain()...)
	metrics.QueueDepth.Set(float64(p.queue.Len()))
	metrics.PendingReadings.Set(float64(len(p.pending)))

	if len(p.pending) == 0 {
		p.logger.Debug().Msg("nothing to flush")
		return nil
	}

	p.state.Store(int32(StateFlushing))
	batch := p.pending
	if err := p.flush(ctx, batch); err != nil {
		return err
	}

	p.pending = nil
	p.flushed.Add(uint64(len(batch)))
	metrics.PendingReadings.Set(0)
	metrics.FlushedReadingsTotal.Add(float64(len(batch)))

	p.export(ctx, batch)
	return nil
}

func (p *Persister) flush(ctx context.Context, batch []types.Reading) (err error) {
	batchID := uuid.NewString()
	ctx, span := otel.Tracer("telemetry-persister").Start(ctx, "persister.Flush")
	defer span.End()

	span.SetAttributes(
		attribute.String("batch.id", batchID),
		attribute.Int("batch.size", len(batch)),
	)

	start := time.Now()
	defer func() {
		metrics.FlushLatencySeconds.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.FlushTotal.WithLabelValues(metrics.ResultError).Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return
		}
		metrics.FlushTotal.WithLabelValues(metrics.ResultSuccess).Inc()
		span.SetStatus(codes.Ok, "")
	}()

	existing, err := p.store.ReadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to read store: %w", err)
	}

	all := make([]types.Reading, 0, len(existing)+len(batch))
	all = append(all, existing...)
	all = append(all, batch...)
	if len(all) > p.maxRecords {
		p.logger.Warn().
			Int("max_records", p.maxRecords).
			Int("dropped", len(all)-p.maxRecords).
			Msg("store limited to most recent records")
		all = all[len(all)-p.maxRecords:]
	}

	if err := p.store.WriteAll(ctx, all); err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}

	metrics.PersistedRecords.Set(float64(len(all)))
	span.SetAttributes(attribute.Int("store.records", len(all)))
	p.logger.Info().
		Str("batch_id", batchID).
		Int("readings", len(batch)).
		Int("records", len(all)).
		Msg("batch flushed")

	return nil
}

// export forwards a stored batch to the sinks. Failures are logged only;
// the durable store already holds the batch.
func (p *Persister) export(ctx context.Context, batch []types.Reading) {
	for _, s := range p.sinks {
		if err := s.Publish(ctx, batch); err != nil {
			metrics.ExportTotal.WithLabelValues(s.Name(), metrics.ResultError).Inc()
			p.logger.Error().Err(err).Str("sink", s.Name()).Int("readings", len(batch)).Msg("export failed")
			continue
		}
		metrics.ExportTotal.WithLabelValues(s.Name(), metrics.ResultSuccess).Inc()
	}
}

func (p *Persister) State() PersisterState {
	return PersisterState(p.state.Load())
}

// Flushed is the number of readings durably written so far.
func (p *Persister) Flushed() uint64 {
	return p.flushed.Load()
}

// Pending is the number of drained readings waiting for a successful flush.
func (p *Persister) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}
