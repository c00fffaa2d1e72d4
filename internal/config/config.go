// Package config loads the service configuration from a YAML file with
// environment-variable overrides for deployment.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env      string        `yaml:"env"`
	Address  string        `yaml:"address"`
	LogsPath string        `yaml:"logs_path"`
	CORS     CORSConfig    `yaml:"cors"`
	Backend  ServiceConfig `yaml:"backend"`
	CI       ServiceConfig `yaml:"ci"`
	Rerun    RerunConfig   `yaml:"rerun"`
	Session  SessionConfig `yaml:"session"`
}

// CORSConfig lists the browser origins allowed to send cookie credentials.
type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins"`
}

// ServiceConfig points at one HTTP collaborator.
type ServiceConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// RerunConfig bounds the rerun polling loops.
type RerunConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxWait      time.Duration `yaml:"max_wait"`
}

// SessionConfig tunes the session-context cache.
type SessionConfig struct {
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Env:      "local",
		Address:  ":3000",
		LogsPath: "qa_dashboard.log",
		CORS: CORSConfig{
			AllowOrigins: []string{"http://localhost:5173"},
		},
		Backend: ServiceConfig{Timeout: 10 * time.Second},
		CI:      ServiceConfig{Timeout: 10 * time.Second},
		Rerun: RerunConfig{
			PollInterval: 2 * time.Second,
			MaxWait:      15 * time.Minute,
		},
		Session: SessionConfig{CacheTTL: 5 * time.Second},
	}
}

// Load reads the config file at path and merges it over the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if url := os.Getenv("BACKEND_BASE_URL"); url != "" {
		cfg.Backend.BaseURL = url
	}
	if url := os.Getenv("CI_BASE_URL"); url != "" {
		cfg.CI.BaseURL = url
	}
	if addr := os.Getenv("LISTEN_ADDRESS"); addr != "" {
		cfg.Address = addr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad reads CONFIG_PATH (default "config/local.yaml") and panics on
// failure; the service cannot run without a valid config.
func MustLoad() *Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/local.yaml"
	}

	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate checks that the configuration is complete.
func (c *Config) Validate() error {
	switch c.Env {
	case "local", "dev", "prod":
	default:
		return fmt.Errorf("env must be one of local, dev, prod, got %q", c.Env)
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.CI.BaseURL == "" {
		return fmt.Errorf("ci.base_url is required")
	}
	if c.Rerun.PollInterval <= 0 {
		return fmt.Errorf("rerun.poll_interval must be positive")
	}
	if c.Rerun.MaxWait <= c.Rerun.PollInterval {
		return fmt.Errorf("rerun.max_wait must exceed rerun.poll_interval")
	}
	return nil
}
