package cmd

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel/trace/noop"

	"github.com/uuship/uuship/internal/config"
	"github.com/uuship/uuship/internal/jobstore"
	"github.com/uuship/uuship/internal/logsink"
	"github.com/uuship/uuship/internal/statsdb/pg"
	"github.com/uuship/uuship/internal/submit"
	"github.com/uuship/uuship/internal/telemetry"
)

// buildPipeline loads configuration and wires a submit.Pipeline the CLI
// commands share: the embedded job store, the event/statistics sink, and
// (when configured) an OTLP tracer.
func buildPipeline() (*submit.Pipeline, func(), error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	store, err := jobstore.Open(cfg.JobStore.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open job store: %w", err)
	}

	eventsFile, err := os.OpenFile(cfg.Logging.EventFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("open event log: %w", err)
	}
	statsFile, err := os.OpenFile(cfg.Logging.StatsFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		eventsFile.Close()
		store.Close()
		return nil, nil, fmt.Errorf("open stats log: %w", err)
	}

	sink := logsink.New(logsink.Format(cfg.Logging.Format), "uuship", eventsFile, statsFile)

	tracer := noop.NewTracerProvider().Tracer("uuship/submit")
	var shutdownTelemetry func()
	if cfg.Telemetry.OTLPEndpoint != "" {
		provider, err := telemetry.Start(context.Background(), cfg.Telemetry.OTLPEndpoint, Version)
		if err != nil {
			eventsFile.Close()
			statsFile.Close()
			store.Close()
			return nil, nil, fmt.Errorf("start telemetry: %w", err)
		}
		tracer = provider.Tracer()
		shutdownTelemetry = func() { provider.Shutdown(context.Background()) }
	}

	p := submit.New(cfg, store, sink, tracer)

	var statsStore *pg.Store
	if cfg.StatsDB.Enabled {
		if dsn := config.PostgresDSN(); dsn != "" {
			statsStore, err = pg.Open(dsn)
			if err != nil {
				// The statistics mirror is a fleet-wide convenience on top
				// of the always-on flat-file log; a submission still
				// succeeds without it.
				sink.Log(logsink.ErrorLevel, "statsdb: %s", err)
			} else {
				p.WithStatsDB(statsStore)
			}
		}
	}

	cleanup := func() {
		if shutdownTelemetry != nil {
			shutdownTelemetry()
		}
		if statsStore != nil {
			statsStore.Close()
		}
		eventsFile.Close()
		statsFile.Close()
		store.Close()
	}
	return p, cleanup, nil
}
