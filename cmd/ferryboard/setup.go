package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/urfave/cli/v2"

	"ferryboard/internal/app"
	"ferryboard/internal/appconf"
	"ferryboard/internal/gtfs"
	"ferryboard/internal/logging"
	"ferryboard/internal/metrics"
)

func loadConfig(c *cli.Context) (*appconf.Config, error) {
	return appconf.Load(c.String("config"))
}

func newLogger(cfg *appconf.Config, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.NewStructuredLogger(w, level), nil
}

func gtfsConfigFrom(cfg *appconf.Config) (gtfs.Config, error) {
	loc, err := cfg.Location()
	if err != nil {
		return gtfs.Config{}, fmt.Errorf("timezone %q: %w", cfg.Timezone, err)
	}
	return gtfs.Config{
		StaticURL:               cfg.StaticURL,
		TripUpdatesURL:          cfg.TripUpdatesURL,
		RealTimeAuthHeaderKey:   cfg.RealTimeAuthHeaderKey,
		RealTimeAuthHeaderValue: cfg.RealTimeAuthHeaderValue,
		Location:                loc,
		StaticRefreshInterval:   cfg.StaticRefreshInterval(),
		RealtimeRefreshInterval: cfg.RealtimeRefreshInterval(),
		TickInterval:            cfg.TickInterval(),
		Verbose:                 cfg.Verbose,
	}, nil
}

// newApplication loads the schedule and wires the application together.
// collector may be nil.
func newApplication(ctx context.Context, cfg *appconf.Config, logger *slog.Logger, collector *metrics.Collector, opts ...gtfs.ManagerOption) (*app.Application, error) {
	gtfsConfig, err := gtfsConfigFrom(cfg)
	if err != nil {
		return nil, err
	}

	opts = append([]gtfs.ManagerOption{gtfs.WithLogger(logger)}, opts...)
	if collector != nil {
		opts = append(opts, gtfs.WithMetrics(collector))
	}

	manager, err := gtfs.InitGTFSManager(ctx, gtfsConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}

	return &app.Application{
		Config:      cfg,
		GtfsConfig:  gtfsConfig,
		Logger:      logger,
		GtfsManager: manager,
		Metrics:     collector,
	}, nil
}
