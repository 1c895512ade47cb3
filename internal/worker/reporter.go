package worker

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ntentasd/nostradamus-telemetry/internal/cache"
	"github.com/ntentasd/nostradamus-telemetry/internal/metrics"
	"github.com/ntentasd/nostradamus-telemetry/pkg/types"
	"github.com/rs/zerolog"
)

const DefaultReportInterval = 10 * time.Second

type Status string

const (
	StatusOK              Status = "OK"
	StatusNoData          Status = "NO DATA"
	StatusHighTemperature Status = "ALERT: HIGH TEMPERATURE"
	StatusElevatedCO2     Status = "ALERT: ELEVATED CO2"
	StatusLowBattery      Status = "ALERT: LOW BATTERY"
)

const (
	highTemperature = 30.0
	elevatedCO2     = 1200.0
	lowBattery      = 20.0
)

// Classify labels a snapshot using fixed per-type thresholds on the last value.
func Classify(sensorType types.SensorType, agg types.Aggregate) Status {
	switch {
	case !agg.HasData():
		return StatusNoData
	case sensorType == types.SensorTypeTemperature && agg.Last > highTemperature:
		return StatusHighTemperature
	case sensorType == types.SensorTypeCO2 && agg.Last > elevatedCO2:
		return StatusElevatedCO2
	case sensorType == types.SensorTypeBattery && agg.Last < lowBattery:
		return StatusLowBattery
	default:
		return StatusOK
	}
}

// SensorSource is the read-only view of a sensor the reporter needs.
type SensorSource interface {
	ID() int
	Type() types.SensorType
	Unit() string
	Statistics() types.Aggregate
	HistoryLen() int
}

// Depther reports the current queue depth.
type Depther interface {
	Len() int
}

type SensorLine struct {
	SensorID   int              `json:"sensor_id"`
	SensorType types.SensorType `json:"sensor_type"`
	Unit       string           `json:"unit"`
	Stats      types.Aggregate  `json:"stats"`
	Status     Status           `json:"status"`
	historyLen int
}

type Report struct {
	GeneratedAt   time.Time
	Lines         []SensorLine
	TotalReadings int
	QueueDepth    int
}

// Reporter periodically renders the statistics of every sensor.
type Reporter struct {
	sensors  []SensorSource
	queue    Depther
	out      io.Writer
	interval time.Duration
	cache    cache.Cache
	cacheTTL time.Duration
	logger   zerolog.Logger

	cancelCtx context.CancelFunc
	done      chan struct{}
}

// NewReporter builds a reporter writing to out. snapshots may be nil.
func NewReporter(sensors []SensorSource, q Depther, out io.Writer, interval time.Duration, snapshots cache.Cache, logger zerolog.Logger) *Reporter {
	if interval <= 0 {
		interval = DefaultReportInterval
	}
	return &Reporter{
		sensors:  sensors,
		queue:    q,
		out:      out,
		interval: interval,
		cache:    snapshots,
		cacheTTL: 3 * interval,
		logger:   logger.With().Str("unit", "reporter").Logger(),
	}
}

func (r *Reporter) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancelCtx = cancel
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.logger.Info().Dur("interval", r.interval).Msg("reporter started")

		for {
			select {
			case <-ctx.Done():
				r.logger.Info().Msg("reporter stopped")
				return
			case <-ticker.C:
				r.ReportOnce(ctx)
			}
		}
	}()
}

// Stop ends the loop and waits for an in-flight report, bounded by ctx.
func (r *Reporter) Stop(ctx context.Context) error {
	if r.cancelCtx == nil {
		return nil
	}
	r.cancelCtx()
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("reporter did not stop: %w", ctx.Err())
	}
}

// ReportOnce runs one duty cycle: collect, render and publish snapshots.
func (r *Reporter) ReportOnce(ctx context.Context) Report {
	rep := r.Collect()
	if err := Render(r.out, rep); err != nil {
		r.logger.Error().Err(err).Msg("failed to write report")
	}
	metrics.ReportsTotal.Inc()
	r.publish(ctx, rep)
	return rep
}

// Collect snapshots every sensor. A sensor whose snapshot fails is logged
// and left out of the report.
func (r *Reporter) Collect() Report {
	rep := Report{GeneratedAt: time.Now()}

	for _, s := range r.sensors {
		line, err := r.line(s)
		if err != nil {
			r.logger.Error().Err(err).Msg("skipping sensor in report")
			continue
		}
		if line.Status != StatusOK && line.Status != StatusNoData {
			metrics.AlertsTotal.WithLabelValues(string(line.Status)).Inc()
		}
		rep.Lines = append(rep.Lines, line)
		rep.TotalReadings += line.historyLen
	}
	if r.queue != nil {
		rep.QueueDepth = r.queue.Len()
	}

	return rep
}

func (r *Reporter) line(s SensorSource) (line SensorLine, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("snapshot panicked: %v", rec)
		}
	}()

	agg := s.Statistics()
	return SensorLine{
		SensorID:   s.ID(),
		SensorType: s.Type(),
		Unit:       s.Unit(),
		Stats:      agg,
		Status:     Classify(s.Type(), agg),
		historyLen: s.HistoryLen(),
	}, nil
}

func (r *Reporter) publish(ctx context.Context, rep Report) {
	if r.cache == nil {
		return
	}
	for _, line := range rep.Lines {
		if err := r.cache.StoreSnapshot(ctx, cache.SnapshotKey(line.SensorID), line, r.cacheTTL); err != nil {
			r.logger.Warn().Err(err).Int("sensor_id", line.SensorID).Msg("failed to cache snapshot")
		}
	}
}

// Render writes rep in the console report layout.
func Render(w io.Writer, rep Report) error {
	var b strings.Builder
	rule := strings.Repeat("=", 80)
	sep := strings.Repeat("-", 80)

	fmt.Fprintf(&b, "\n%s\n", rule)
	fmt.Fprintf(&b, "SENSOR STATISTICS - %s\n", rep.GeneratedAt.Format(time.DateTime))
	fmt.Fprintf(&b, "%s\n", rule)

	for _, l := range rep.Lines {
		fmt.Fprintf(&b, "Sensor %s (ID:%d):\n", l.SensorType, l.SensorID)
		fmt.Fprintf(&b, "  Last value: %s\n", value(l.Stats.HasData(), l.Stats.Last, l.Unit))
		fmt.Fprintf(&b, "  Min: %s, Max: %s, Avg: %s, StdDev: %s\n",
			value(l.Stats.HasData(), l.Stats.Min, l.Unit),
			value(l.Stats.HasData(), l.Stats.Max, l.Unit),
			value(l.Stats.HasData(), l.Stats.Avg, l.Unit),
			value(l.Stats.HasData(), l.Stats.StdDev, l.Unit),
		)
		fmt.Fprintf(&b, "  Readings: %d | Status: %s\n", l.Stats.Count, l.Status)
		fmt.Fprintf(&b, "%s\n", sep)
	}

	fmt.Fprintf(&b, "Total readings: %d | Queued readings: %d\n", rep.TotalReadings, rep.QueueDepth)
	fmt.Fprintf(&b, "%s\n", rule)

	_, err := io.WriteString(w, b.String())
	return err
}

func value(ok bool, v float64, unit string) string {
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%s", v, unit)
}
