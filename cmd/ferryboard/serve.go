package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"ferryboard/internal/gtfs"
	"ferryboard/internal/metrics"
	"ferryboard/internal/publisher"
	"ferryboard/internal/restapi"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API and keep the schedule refreshed",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "override the configured API server port",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("port") {
		cfg.Port = c.Int("port")
	}

	logger, err := newLogger(cfg, c.App.Writer)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector(cfg.StaticRefreshInterval(), cfg.RealtimeRefreshInterval())

	var opts []gtfs.ManagerOption
	var boardPublisher *publisher.NATSPublisher
	if cfg.NATS.URL != "" {
		boardPublisher, err = publisher.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix, logger, collector)
		if err != nil {
			return err
		}
		defer boardPublisher.Close()
		opts = append(opts, gtfs.WithRefreshHook(boardPublisher.RefreshHook(cfg.Targets(), nil)))
	}

	application, err := newApplication(ctx, cfg, logger, collector, opts...)
	if err != nil {
		return err
	}
	manager := application.GtfsManager
	manager.LogStatistics()

	if boardPublisher != nil {
		boardPublisher.RefreshHook(cfg.Targets(), manager.Now)(ctx, manager.Snapshot())
	}

	manager.Start()
	defer manager.Shutdown()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      restapi.NewRestAPI(application).Handler(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			slog.String("addr", srv.Addr),
			slog.String("env", cfg.Env.String()),
			slog.Int("departure_boards", len(cfg.Departures)))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
