package routes

import (
	"github.com/ntentasd/nostradamus-telemetry/internal/cache"
	"github.com/rs/zerolog"
)

// Pipeline is the view of the running pipeline the health check reports.
type Pipeline interface {
	QueueDepth() int
	SensorsRunning() int
	Flushed() uint64
}

type App struct {
	Pipeline Pipeline
	Cache    cache.Cache
	logger   zerolog.Logger
}

// New builds the ops handlers. c may be nil when no snapshot cache is used.
func New(p Pipeline, c cache.Cache, logger zerolog.Logger) *App {
	return &App{
		p,
		c,
		logger.With().Str("unit", "ops").Logger(),
	}
}
