package appconf

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ferryboard/internal/schedule"
)

const envPrefix = "FERRYBOARD_"

const (
	DefaultPort                       = 4000
	DefaultStaticRefreshIntervalSec   = 3600
	DefaultRealtimeRefreshIntervalSec = 60
	DefaultTickIntervalSec            = 15
	DefaultNATSSubjectPrefix          = "ferryboard.departures"
)

// Config holds all the configuration settings for the application.
type Config struct {
	Env      Environment `yaml:"env"`
	Port     int         `yaml:"port" validate:"gte=0,lte=65535"`
	ApiKeys  []string    `yaml:"api_keys" validate:"dive,required"`
	LogLevel string      `yaml:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	Verbose  bool        `yaml:"verbose"`

	Timezone                   string `yaml:"timezone" validate:"required,timezone"`
	StaticURL                  string `yaml:"static_url" validate:"required"`
	TripUpdatesURL             string `yaml:"trip_updates_url" validate:"omitempty,url"`
	RealTimeAuthHeaderKey      string `yaml:"realtime_auth_header_key" validate:"required_with=RealTimeAuthHeaderValue"`
	RealTimeAuthHeaderValue    string `yaml:"realtime_auth_header_value"`
	StaticRefreshIntervalSec   int    `yaml:"static_refresh_interval_sec" validate:"gte=0"`
	RealtimeRefreshIntervalSec int    `yaml:"realtime_refresh_interval_sec" validate:"gte=0"`
	TickIntervalSec            int    `yaml:"tick_interval_sec" validate:"gte=0"`

	MetricsEnabled bool       `yaml:"metrics_enabled"`
	NATS           NATSConfig `yaml:"nats"`

	Departures []Departure `yaml:"departures" validate:"required,min=1,unique=Name,dive"`
}

type NATSConfig struct {
	URL           string `yaml:"url" validate:"omitempty,url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// Departure names one stop on one route and direction to show a board for.
type Departure struct {
	Name        string `yaml:"name" validate:"required"`
	RouteID     string `yaml:"route_id" validate:"required"`
	DirectionID string `yaml:"direction_id"`
	StopID      string `yaml:"stop_id" validate:"required"`
}

// Load reads a YAML config file, applies FERRYBOARD_* environment overrides and
// validates the result. A .env file in the working directory is loaded first if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data, os.LookupEnv)
}

// Parse decodes and validates config data. lookupEnv supplies environment overrides.
func Parse(data []byte, lookupEnv func(string) (string, bool)) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if lookupEnv != nil {
		if err := cfg.applyEnv(lookupEnv); err != nil {
			return nil, err
		}
	}
	cfg.applyDefaults()

	if err := validator.New().Struct(cfg); err != nil {
		return nil, describeValidationError(err)
	}
	return &cfg, nil
}

func (cfg *Config) applyEnv(lookupEnv func(string) (string, bool)) error {
	lookup := func(name string) (string, bool) {
		value, ok := lookupEnv(envPrefix + name)
		return strings.TrimSpace(value), ok && strings.TrimSpace(value) != ""
	}

	if v, ok := lookup("ENV"); ok {
		env, err := parseEnvironment(v)
		if err != nil {
			return fmt.Errorf("invalid %sENV: %w", envPrefix, err)
		}
		cfg.Env = env
	}
	if v, ok := lookup("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sPORT: %q", envPrefix, v)
		}
		cfg.Port = port
	}
	if v, ok := lookup("API_KEYS"); ok {
		cfg.ApiKeys = splitList(v)
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := lookup("TIMEZONE"); ok {
		cfg.Timezone = v
	}
	if v, ok := lookup("STATIC_URL"); ok {
		cfg.StaticURL = v
	}
	if v, ok := lookup("TRIP_UPDATES_URL"); ok {
		cfg.TripUpdatesURL = v
	}
	if v, ok := lookup("REALTIME_AUTH_HEADER_VALUE"); ok {
		cfg.RealTimeAuthHeaderValue = v
	}
	if v, ok := lookup("NATS_URL"); ok {
		cfg.NATS.URL = v
	}
	if v, ok := lookup("METRICS_ENABLED"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sMETRICS_ENABLED: %q", envPrefix, v)
		}
		cfg.MetricsEnabled = enabled
	}
	return nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.StaticRefreshIntervalSec == 0 {
		cfg.StaticRefreshIntervalSec = DefaultStaticRefreshIntervalSec
	}
	if cfg.RealtimeRefreshIntervalSec == 0 {
		cfg.RealtimeRefreshIntervalSec = DefaultRealtimeRefreshIntervalSec
	}
	if cfg.TickIntervalSec == 0 {
		cfg.TickIntervalSec = DefaultTickIntervalSec
	}
	if cfg.NATS.URL != "" && cfg.NATS.SubjectPrefix == "" {
		cfg.NATS.SubjectPrefix = DefaultNATSSubjectPrefix
	}
}

// Location loads the configured timezone. Parse has already validated it.
func (cfg *Config) Location() (*time.Location, error) {
	return time.LoadLocation(cfg.Timezone)
}

func (cfg *Config) StaticRefreshInterval() time.Duration {
	return time.Duration(cfg.StaticRefreshIntervalSec) * time.Second
}

func (cfg *Config) RealtimeRefreshInterval() time.Duration {
	return time.Duration(cfg.RealtimeRefreshIntervalSec) * time.Second
}

func (cfg *Config) TickInterval() time.Duration {
	return time.Duration(cfg.TickIntervalSec) * time.Second
}

// Targets returns the configured departure boards in file order.
func (cfg *Config) Targets() []schedule.Target {
	targets := make([]schedule.Target, 0, len(cfg.Departures))
	for _, d := range cfg.Departures {
		targets = append(targets, d.Target())
	}
	return targets
}

// Target looks up a configured departure board by name.
func (cfg *Config) Target(name string) (schedule.Target, bool) {
	for _, d := range cfg.Departures {
		if d.Name == name {
			return d.Target(), true
		}
	}
	return schedule.Target{}, false
}

func (d Departure) Target() schedule.Target {
	return schedule.Target{
		Name:        d.Name,
		RouteID:     d.RouteID,
		DirectionID: d.DirectionID,
		StopID:      d.StopID,
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func describeValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("invalid config: %w", err)
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		messages = append(messages, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(messages, "; "))
}
