package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// configEnv names the environment variable consulted when --config is unset.
const configEnv = "PETSTORE_CONFIG"

// Config is the petstore command configuration.
type Config struct {
	// Addr is the listen address for serve mode.
	Addr string `yaml:"addr"`

	// URL is the server base URL for client mode.
	URL string `yaml:"url"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	Server  ServerConfig  `yaml:"server"`
	Client  ClientConfig  `yaml:"client"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig configures the HTTP middleware stack.
type ServerConfig struct {
	RequestTimeout time.Duration `yaml:"request_timeout"`
	BodyLimit      int64         `yaml:"body_limit"`
	RateLimit      float64       `yaml:"rate_limit"`
	RateBurst      int           `yaml:"rate_burst"`
}

// ClientConfig configures the client transport.
type ClientConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"`
	RateBurst int           `yaml:"rate_burst"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Addr:     "127.0.0.1:8080",
		URL:      "http://127.0.0.1:8080",
		LogLevel: "info",
		Server: ServerConfig{
			RequestTimeout: 30 * time.Second,
			BodyLimit:      1 << 20,
		},
		Client: ClientConfig{
			Timeout: 10 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Path:      "/metrics",
			Namespace: "petstore",
		},
	}
}

// LoadConfig reads the YAML file at path over the defaults. An empty path
// falls back to $PETSTORE_CONFIG; when both are empty the defaults are
// returned unchanged.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = os.Getenv(configEnv)
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.URL == "" {
		errs = append(errs, errors.New("url is required"))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if c.Server.BodyLimit < 0 {
		errs = append(errs, errors.New("server.body_limit must not be negative"))
	}
	if c.Server.RateLimit < 0 || c.Client.RateLimit < 0 {
		errs = append(errs, errors.New("rate_limit must not be negative"))
	}
	if c.Metrics.Enabled && c.Metrics.Path == "" {
		errs = append(errs, errors.New("metrics.path is required when metrics are enabled"))
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}
