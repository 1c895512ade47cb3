// Package config loads the pipeline configuration from the environment and
// an optional YAML sensor roster.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/ntentasd/nostradamus-telemetry/internal/logging"
	"github.com/ntentasd/nostradamus-telemetry/pkg/types"
	"gopkg.in/yaml.v3"
)

var ErrInvalidRoster = errors.New("invalid sensor roster")

// Config holds all application configuration.
type Config struct {
	Pipeline PipelineConfig
	Store    StoreConfig
	Cache    CacheConfig
	Export   ExportConfig
	Logging  logging.Config
	Tracing  TracingConfig

	MetricsAddr string `envconfig:"METRICS_ADDR"`

	Roster []types.SensorSpec `ignored:"true"`
}

// PipelineConfig holds the cadences and limits of the pipeline units.
type PipelineConfig struct {
	FlushInterval   time.Duration `envconfig:"FLUSH_INTERVAL" default:"60s"`
	ReportInterval  time.Duration `envconfig:"REPORT_INTERVAL" default:"10s"`
	MaxRecords      int           `envconfig:"MAX_RECORDS" default:"10000"`
	HistorySize     int           `envconfig:"HISTORY_SIZE" default:"100"`
	SensorStagger   time.Duration `envconfig:"SENSOR_STAGGER" default:"500ms"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RosterFile      string        `envconfig:"SENSOR_ROSTER"`
}

// StoreConfig selects the durable store.
type StoreConfig struct {
	Driver      string   `envconfig:"STORE_DRIVER" default:"file"`
	DataFile    string   `envconfig:"DATA_FILE" default:"sensor_data.json"`
	ValkeyNodes []string `envconfig:"VALKEY_NODES"`
	ValkeyKey   string   `envconfig:"VALKEY_KEY" default:"telemetry:readings"`
}

// CacheConfig selects the snapshot cache.
type CacheConfig struct {
	Driver        string `envconfig:"CACHE_DRIVER" default:"none"`
	MemcachedAddr string `envconfig:"MEMCACHED_ADDR"`
}

// ExportConfig enables the optional batch export sinks.
type ExportConfig struct {
	KafkaBrokers   []string `envconfig:"KAFKA_BROKERS"`
	ScyllaNodes    []string `envconfig:"SCYLLA_NODES"`
	ScyllaKeyspace string   `envconfig:"SCYLLA_KEYSPACE" default:"sensors_data"`
}

// TracingConfig holds the OTLP exporter endpoint.
type TracingConfig struct {
	Endpoint    string `envconfig:"TEMPO_ENDPOINT"`
	ServiceName string `envconfig:"SERVICE_NAME" default:"telemetry-simulator"`
}

// Load loads configuration from environment variables and the roster file.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.Roster = DefaultRoster()
	if cfg.Pipeline.RosterFile != "" {
		roster, err := LoadRoster(cfg.Pipeline.RosterFile)
		if err != nil {
			return nil, err
		}
		cfg.Roster = roster
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	p := c.Pipeline
	switch {
	case p.FlushInterval <= 0:
		return fmt.Errorf("FLUSH_INTERVAL must be positive")
	case p.ReportInterval <= 0:
		return fmt.Errorf("REPORT_INTERVAL must be positive")
	case p.MaxRecords <= 0:
		return fmt.Errorf("MAX_RECORDS must be positive")
	case p.HistorySize <= 0:
		return fmt.Errorf("HISTORY_SIZE must be positive")
	case p.SensorStagger < 0:
		return fmt.Errorf("SENSOR_STAGGER must not be negative")
	}
	return ValidateRoster(c.Roster)
}

type rosterFile struct {
	Sensors []types.SensorSpec `yaml:"sensors"`
}

// LoadRoster reads a YAML roster of the form
//
//	sensors:
//	  - {id: 1, type: temperature, min: 15, max: 35, unit: "°C", interval_seconds: 2}
func LoadRoster(path string) ([]types.SensorSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}

	var rf rosterFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("failed to parse roster %s: %w", path, err)
	}
	if err := ValidateRoster(rf.Sensors); err != nil {
		return nil, err
	}
	return rf.Sensors, nil
}

func ValidateRoster(roster []types.SensorSpec) error {
	if len(roster) == 0 {
		return fmt.Errorf("%w: no sensors", ErrInvalidRoster)
	}

	seen := make(map[int]bool, len(roster))
	for _, s := range roster {
		if seen[s.ID] {
			return fmt.Errorf("%w: duplicate sensor id %d", ErrInvalidRoster, s.ID)
		}
		seen[s.ID] = true
		if err := s.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRoster, err)
		}
	}
	return nil
}

// DefaultRoster is the built-in set of seven sensors.
func DefaultRoster() []types.SensorSpec {
	return []types.SensorSpec{
		{ID: 1, Type: types.SensorTypeTemperature, Min: 15.0, Max: 35.0, Unit: "°C", IntervalSeconds: 2.0},
		{ID: 2, Type: types.SensorTypeHumidity, Min: 20.0, Max: 95.0, Unit: "%", IntervalSeconds: 3.0},
		{ID: 3, Type: types.SensorTypePressure, Min: 980.0, Max: 1030.0, Unit: "hPa", IntervalSeconds: 5.0},
		{ID: 4, Type: types.SensorTypeCO2, Min: 400.0, Max: 1500.0, Unit: "ppm", IntervalSeconds: 4.0},
		{ID: 5, Type: types.SensorTypeLuminosity, Min: 0.0, Max: 1000.0, Unit: "lux", IntervalSeconds: 1.5},
		{ID: 6, Type: types.SensorTypeBattery, Min: 0.0, Max: 100.0, Unit: "%", IntervalSeconds: 10.0},
		{ID: 7, Type: types.SensorTypeNoise, Min: 30.0, Max: 90.0, Unit: "dB", IntervalSeconds: 2.5},
	}
}
