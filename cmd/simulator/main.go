package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ntentasd/nostradamus-telemetry/internal/cache"
	"github.com/ntentasd/nostradamus-telemetry/internal/config"
	"github.com/ntentasd/nostradamus-telemetry/internal/db"
	"github.com/ntentasd/nostradamus-telemetry/internal/kafka"
	"github.com/ntentasd/nostradamus-telemetry/internal/logging"
	"github.com/ntentasd/nostradamus-telemetry/internal/queue"
	"github.com/ntentasd/nostradamus-telemetry/internal/routes"
	"github.com/ntentasd/nostradamus-telemetry/internal/store"
	"github.com/ntentasd/nostradamus-telemetry/internal/tracing"
	"github.com/ntentasd/nostradamus-telemetry/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry simulator: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, logCloser, err := logging.New(cfg.Logging, os.Stdout)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tracing.InitTracer(ctx, cfg.Tracing.Endpoint, cfg.Tracing.ServiceName)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("tracer shutdown failed")
		}
	}()

	st, closeStore, err := openStore(cfg.Store, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	snapshots, err := cache.New(cfg.Cache.Driver, cfg.Store.ValkeyNodes, cfg.Cache.MemcachedAddr)
	if err != nil {
		return err
	}
	if snapshots != nil {
		defer snapshots.Close()
	}

	var sinks []worker.Sink
	if len(cfg.Export.KafkaBrokers) > 0 {
		publisher, err := kafka.NewPublisher(cfg.Export.KafkaBrokers)
		if err != nil {
			return err
		}
		defer publisher.Close()
		sinks = append(sinks, publisher)
	}
	if len(cfg.Export.ScyllaNodes) > 0 {
		scylla, err := db.New(cfg.Export.ScyllaNodes, cfg.Export.ScyllaKeyspace)
		if err != nil {
			return err
		}
		defer scylla.Close()
		sinks = append(sinks, scylla)
	}

	q := queue.New()
	sv := worker.NewSupervisor(worker.Options{
		Roster:          cfg.Roster,
		HistorySize:     cfg.Pipeline.HistorySize,
		SensorStagger:   cfg.Pipeline.SensorStagger,
		FlushInterval:   cfg.Pipeline.FlushInterval,
		ReportInterval:  cfg.Pipeline.ReportInterval,
		MaxRecords:      cfg.Pipeline.MaxRecords,
		ShutdownTimeout: cfg.Pipeline.ShutdownTimeout,
		ReportOutput:    os.Stdout,
	}, q, st, snapshots, logger, sinks...)

	if cfg.MetricsAddr != "" {
		ops := newOpsServer(cfg.MetricsAddr, routes.NewMux(routes.New(sv, snapshots, logger)), logger)
		if err := ops.Start(); err != nil {
			return err
		}
		defer ops.Shutdown(5 * time.Second)
	}

	logger.Info().
		Int("sensors", len(cfg.Roster)).
		Str("store", cfg.Store.Driver).
		Int("sinks", len(sinks)).
		Msg("starting sensor monitoring, press Ctrl+C to stop")

	return sv.Run(ctx)
}

func openStore(cfg config.StoreConfig, logger zerolog.Logger) (store.Store, func(), error) {
	switch cfg.Driver {
	case "", "file":
		logger.Info().Str("path", cfg.DataFile).Msg("using file store")
		return store.NewFileStore(cfg.DataFile), func() {}, nil
	case "valkey":
		if len(cfg.ValkeyNodes) == 0 {
			return nil, nil, errors.New("store driver valkey requires VALKEY_NODES")
		}
		vs := store.NewValkeyStore(cfg.ValkeyNodes, cfg.ValkeyKey)
		return vs, func() {
			if err := vs.Close(); err != nil {
				logger.Warn().Err(err).Msg("failed to close valkey store")
			}
		}, nil
	case "memory":
		return store.NewMemoryStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
