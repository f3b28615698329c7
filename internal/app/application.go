package app

import (
	"log/slog"

	"ferryboard/internal/appconf"
	"ferryboard/internal/gtfs"
	"ferryboard/internal/metrics"
)

// Application holds the dependencies for our HTTP handlers, helpers,
// and middleware.
type Application struct {
	Config      *appconf.Config
	GtfsConfig  gtfs.Config
	Logger      *slog.Logger
	GtfsManager *gtfs.Manager
	Metrics     *metrics.Collector
}
