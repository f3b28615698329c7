package gtfs

import "time"

type Config struct {
	// StaticURL is either an http(s) URL or a local path to a GTFS zip.
	StaticURL               string
	TripUpdatesURL          string
	RealTimeAuthHeaderKey   string
	RealTimeAuthHeaderValue string
	Location                *time.Location
	StaticRefreshInterval   time.Duration
	RealtimeRefreshInterval time.Duration
	// TickInterval is how often the background loop checks whether a refresh is due.
	TickInterval time.Duration
	Verbose      bool
}

const (
	DefaultStaticRefreshInterval   = time.Hour
	DefaultRealtimeRefreshInterval = 60 * time.Second
	DefaultTickInterval            = 15 * time.Second
)

func (config Config) realTimeDataEnabled() bool {
	return config.TripUpdatesURL != ""
}

func (config Config) location() *time.Location {
	if config.Location == nil {
		return time.UTC
	}
	return config.Location
}

func (config Config) withDefaults() Config {
	if config.StaticRefreshInterval <= 0 {
		config.StaticRefreshInterval = DefaultStaticRefreshInterval
	}
	if config.RealtimeRefreshInterval <= 0 {
		config.RealtimeRefreshInterval = DefaultRealtimeRefreshInterval
	}
	if config.TickInterval <= 0 {
		config.TickInterval = DefaultTickInterval
	}
	return config
}

func (config Config) realtimeHeaders() map[string]string {
	headers := map[string]string{}
	if config.RealTimeAuthHeaderKey != "" && config.RealTimeAuthHeaderValue != "" {
		headers[config.RealTimeAuthHeaderKey] = config.RealTimeAuthHeaderValue
	}
	return headers
}
