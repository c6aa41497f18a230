// Package config loads srl-eval settings from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid indicates a configuration value out of range.
var ErrInvalid = errors.New("config: invalid value")

// Config holds evaluation settings.
type Config struct {
	// Endpoint is the prediction service URL.
	Endpoint string `yaml:"endpoint"`
	// NullTag marks "no predicate" and "no role".
	NullTag string `yaml:"null_tag"`
	// PredicateMode is "predict" (the service finds predicates) or "given"
	// (gold predicates are sent with each sentence).
	PredicateMode string `yaml:"predicate_mode"`
	// Workers bounds parallel scoring.
	Workers int `yaml:"workers"`
	// Concurrency bounds in-flight prediction requests.
	Concurrency    int           `yaml:"concurrency"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	Retry          Retry         `yaml:"retry"`
	Progress       bool          `yaml:"progress"`
	LogLevel       string        `yaml:"log_level"`
	Trace          bool          `yaml:"trace"`
}

// Retry configures the wait for the prediction service.
type Retry struct {
	Attempts int           `yaml:"attempts"`
	Delay    time.Duration `yaml:"delay"`
}

// Defaults returns the settings used when no file is given.
func Defaults() Config {
	return Config{
		Endpoint:       "http://127.0.0.1:12345",
		NullTag:        "_",
		PredicateMode:  "predict",
		Workers:        runtime.NumCPU(),
		Concurrency:    4,
		RequestTimeout: 30 * time.Second,
		Retry: Retry{
			Attempts: 10,
			Delay:    10 * time.Second,
		},
		LogLevel: "info",
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Defaults(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Defaults()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.NullTag == "" {
		return fmt.Errorf("%w: null_tag is empty", ErrInvalid)
	}
	switch c.PredicateMode {
	case "predict", "given":
	default:
		return fmt.Errorf("%w: predicate_mode %q, want predict or given", ErrInvalid, c.PredicateMode)
	}
	if c.Retry.Attempts <= 0 {
		return fmt.Errorf("%w: retry.attempts must be positive", ErrInvalid)
	}
	if c.Retry.Delay < 0 {
		return fmt.Errorf("%w: retry.delay is negative", ErrInvalid)
	}
	if c.Workers < 0 || c.Concurrency < 0 {
		return fmt.Errorf("%w: workers and concurrency must not be negative", ErrInvalid)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("%w: request_timeout is negative", ErrInvalid)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel parses a log level name such as "debug" or "warn".
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", ErrInvalid, s)
	}
	return level, nil
}
