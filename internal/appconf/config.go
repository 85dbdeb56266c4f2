// Package appconf loads the service configuration from defaults, an optional
// YAML file, a .env file and the process environment, in that order.
package appconf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Prediction feed selectors.
const (
	PredictionsAPI    = "api"
	PredictionsGTFSRT = "gtfs-rt"
)

type Config struct {
	Env       Environment `yaml:"-"`
	EnvName   string      `yaml:"env" validate:"oneof=development test production"`
	LogLevel  string      `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string      `yaml:"log_format" validate:"oneof=json text"`
	Timezone  string      `yaml:"timezone" validate:"required"`

	Server ServerConfig `yaml:"server"`
	Source SourceConfig `yaml:"source"`
	Stop   StopConfig   `yaml:"stop"`
}

type ServerConfig struct {
	Port         int           `yaml:"port" validate:"gt=0,lte=65535"`
	ReadTimeout  time.Duration `yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"gt=0"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" validate:"gt=0"`
	// RateLimit is requests per second allowed per client; 0 disables limiting.
	RateLimit float64 `yaml:"rate_limit" validate:"gte=0"`
	RateBurst int     `yaml:"rate_burst" validate:"gte=0"`
	// DebugKeys unlock the debug page; with none set it is disabled.
	DebugKeys []string `yaml:"debug_keys"`
}

type SourceConfig struct {
	BaseURL        string        `yaml:"base_url" validate:"required,url"`
	APIKey         string        `yaml:"api_key"`
	UserAgent      string        `yaml:"user_agent" validate:"required"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
	Workers        int           `yaml:"workers" validate:"gte=1,lte=32"`
	Predictions    string        `yaml:"predictions" validate:"oneof=api gtfs-rt"`
	TripUpdatesURL string        `yaml:"trip_updates_url" validate:"omitempty,url"`
}

type StopConfig struct {
	Name string `yaml:"name" validate:"required"`
	ID   string `yaml:"id" validate:"required"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Env:       Development,
		EnvName:   Development.String(),
		LogLevel:  "info",
		LogFormat: "json",
		Timezone:  "America/New_York",
		Server: ServerConfig{
			Port:         4000,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  time.Minute,
			RateLimit:    5,
			RateBurst:    10,
		},
		Source: SourceConfig{
			BaseURL:        "https://api-v3.mbta.com",
			UserAgent:      "stationboard/1.0",
			RequestTimeout: 10 * time.Second,
			Workers:        4,
			Predictions:    PredictionsAPI,
			TripUpdatesURL: "https://cdn.mbta.com/realtime/TripUpdates.pb",
		},
		Stop: StopConfig{
			Name: "North Station",
			ID:   "place-north",
		},
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and the environment apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	cfg.Env = EnvFlagToEnvironment(cfg.EnvName)
	cfg.EnvName = cfg.Env.String()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from a .env file without overriding ones already
// set. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Validate checks field constraints and cross-field rules.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid configuration: timezone %q: %w", c.Timezone, err)
	}
	if c.Source.Predictions == PredictionsGTFSRT && c.Source.TripUpdatesURL == "" {
		return fmt.Errorf("invalid configuration: source.trip_updates_url is required when predictions is %q", PredictionsGTFSRT)
	}
	return nil
}

// Location returns the agency timezone. It falls back to UTC if the zone
// cannot be loaded, which Validate rules out.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func applyEnv(cfg *Config) error {
	cfg.EnvName = getEnv("STATIONBOARD_ENV", cfg.EnvName)
	cfg.LogLevel = getEnv("STATIONBOARD_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("STATIONBOARD_LOG_FORMAT", cfg.LogFormat)
	cfg.Timezone = getEnv("STATIONBOARD_TIMEZONE", cfg.Timezone)
	cfg.Source.BaseURL = getEnv("STATIONBOARD_BASE_URL", cfg.Source.BaseURL)
	cfg.Source.APIKey = getEnv("MBTA_API_KEY", cfg.Source.APIKey)
	cfg.Source.UserAgent = getEnv("STATIONBOARD_USER_AGENT", cfg.Source.UserAgent)
	cfg.Source.Predictions = getEnv("STATIONBOARD_PREDICTIONS", cfg.Source.Predictions)
	cfg.Source.TripUpdatesURL = getEnv("STATIONBOARD_TRIP_UPDATES_URL", cfg.Source.TripUpdatesURL)

	if keys := os.Getenv("STATIONBOARD_DEBUG_KEYS"); keys != "" {
		cfg.Server.DebugKeys = nil
		for _, k := range strings.Split(keys, ",") {
			if k = strings.TrimSpace(k); k != "" {
				cfg.Server.DebugKeys = append(cfg.Server.DebugKeys, k)
			}
		}
	}

	var err error
	if cfg.Server.Port, err = getIntEnv("PORT", cfg.Server.Port); err != nil {
		return err
	}
	if cfg.Source.Workers, err = getIntEnv("STATIONBOARD_WORKERS", cfg.Source.Workers); err != nil {
		return err
	}
	if cfg.Source.RequestTimeout, err = getDurationEnv("STATIONBOARD_REQUEST_TIMEOUT", cfg.Source.RequestTimeout); err != nil {
		return err
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
