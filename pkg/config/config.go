// Package config loads service and CLI settings from a YAML file with
// environment overrides.
package config

import (
	"bytes"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/dd0wney/cluso-tmhmm/pkg/logging"
	"github.com/dd0wney/cluso-tmhmm/pkg/model"
	"github.com/dd0wney/cluso-tmhmm/pkg/validation"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	Model    ModelConfig  `yaml:"model"`
	Decode   DecodeConfig `yaml:"decode"`
	Server   ServerConfig `yaml:"server"`
	Store    StoreConfig  `yaml:"store"`
	LogLevel string       `yaml:"log_level"`
}

// ModelConfig selects and prepares the model.
type ModelConfig struct {
	// Path to a model description. Empty selects the bundled model.
	Path        string  `yaml:"path"`
	Name        string  `yaml:"name"`
	HeaderLines int     `yaml:"header_lines"`
	EndState    string  `yaml:"end_state"`
	Alpha       float64 `yaml:"alpha"`
	InsideLoop  string  `yaml:"inside_loop"`
	OutsideLoop string  `yaml:"outside_loop"`
}

// DecodeConfig controls batch decoding.
type DecodeConfig struct {
	Method  string `yaml:"method"`
	Workers int    `yaml:"workers"`
}

// ServerConfig controls the HTTP service.
type ServerConfig struct {
	Listen          string        `yaml:"listen"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBatch        int           `yaml:"max_batch"`
	HeapLimitMB     uint64        `yaml:"heap_limit_mb"` // 0 disables the memory check
}

// StoreConfig selects where compiled models are kept.
type StoreConfig struct {
	Driver string `yaml:"driver"` // memory, sqlite or postgres
	DSN    string `yaml:"dsn"`
}

// Store drivers
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Name:        "tmhmm",
			HeaderLines: model.DefaultHeaderLines,
			EndState:    model.DefaultEndState,
			Alpha:       model.DefaultSmoothing().Alpha,
			InsideLoop:  model.DefaultSmoothing().InsideLoop,
			OutsideLoop: model.DefaultSmoothing().OutsideLoop,
		},
		Decode: DecodeConfig{
			Method:  "viterbi",
			Workers: runtime.NumCPU(),
		},
		Server: ServerConfig{
			Listen:          ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBatch:        validation.MaxBatchSize,
		},
		Store: StoreConfig{
			Driver: DriverMemory,
		},
		LogLevel: "info",
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from TMHMM_MODEL, TMHMM_ALPHA,
// TMHMM_METHOD, TMHMM_WORKERS, TMHMM_LISTEN, TMHMM_STORE_DRIVER,
// TMHMM_STORE_DSN and LOG_LEVEL.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("TMHMM_MODEL"); v != "" {
		c.Model.Path = v
	}
	if v := os.Getenv("TMHMM_ALPHA"); v != "" {
		a, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("TMHMM_ALPHA: %w", err)
		}
		c.Model.Alpha = a
	}
	if v := os.Getenv("TMHMM_METHOD"); v != "" {
		c.Decode.Method = v
	}
	if v := os.Getenv("TMHMM_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TMHMM_WORKERS: %w", err)
		}
		c.Decode.Workers = n
	}
	if v := os.Getenv("TMHMM_LISTEN"); v != "" {
		c.Server.Listen = v
	}
	if v := os.Getenv("TMHMM_STORE_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv("TMHMM_STORE_DSN"); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Validate checks every section and reports all problems found.
func (c *Config) Validate() error {
	return validation.NewConfigValidator("Config").
		Required("Model.Name", c.Model.Name).
		Custom("Model.Path", func() error {
			if c.Model.Path == "" {
				return nil
			}
			_, err := os.Stat(c.Model.Path)
			return err
		}).
		NonNegative("Model.HeaderLines", c.Model.HeaderLines).
		Required("Model.EndState", c.Model.EndState).
		OpenRangeFloat("Model.Alpha", c.Model.Alpha, 0, 1).
		Required("Model.InsideLoop", c.Model.InsideLoop).
		Required("Model.OutsideLoop", c.Model.OutsideLoop).
		OneOf("Decode.Method", strings.ToLower(c.Decode.Method), []string{"viterbi", "posterior"}).
		RangeInt("Decode.Workers", c.Decode.Workers, 1, 1024).
		Required("Server.Listen", c.Server.Listen).
		RangeDuration("Server.ReadTimeout", c.Server.ReadTimeout, time.Second, time.Hour).
		RangeDuration("Server.WriteTimeout", c.Server.WriteTimeout, time.Second, time.Hour).
		RangeDuration("Server.ShutdownTimeout", c.Server.ShutdownTimeout, 0, time.Minute).
		RangeInt("Server.MaxBatch", c.Server.MaxBatch, validation.MinBatchSize, validation.MaxBatchSize).
		OneOf("Store.Driver", c.Store.Driver, []string{DriverMemory, DriverSQLite, DriverPostgres}).
		When(c.Store.Driver != DriverMemory, func(v *validation.ConfigValidator) {
			v.Required("Store.DSN", c.Store.DSN)
		}).
		OneOf("LogLevel", strings.ToLower(c.LogLevel), []string{"debug", "info", "warn", "warning", "error"}).
		Validate()
}

// Level returns the configured log level.
func (c *Config) Level() logging.Level {
	return logging.ParseLevel(c.LogLevel)
}
