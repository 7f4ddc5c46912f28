// Package config models ventureline.yml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	User struct {
		// DefaultID is used when a request carries no identity.
		DefaultID string `yaml:"default_id"`
	} `yaml:"user"`
	AI struct {
		Model          string  `yaml:"model"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		MaxRetries     int     `yaml:"max_retries"`
		Temperature    float64 `yaml:"temperature"`
	} `yaml:"ai"`
	Chat struct {
		// WelcomeMessage overrides the first assistant message seeded into
		// new ventures. Empty means the built-in text.
		WelcomeMessage string `yaml:"welcome_message"`
	} `yaml:"chat"`
	Server struct {
		Addr      string `yaml:"addr"`
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"server"`
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	cfg.User.DefaultID = "local"
	cfg.AI.Model = "gpt-4o"
	cfg.AI.TimeoutSeconds = 60
	cfg.AI.MaxRetries = 3
	cfg.AI.Temperature = 0.7
	cfg.Server.Addr = ":8080"
	return &cfg
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.User.DefaultID == "" {
		return fmt.Errorf("config.user.default_id is required")
	}
	if c.AI.Model == "" {
		return fmt.Errorf("config.ai.model is required")
	}
	if c.AI.TimeoutSeconds <= 0 {
		return fmt.Errorf("config.ai.timeout_seconds must be positive")
	}
	if c.AI.MaxRetries < 0 {
		return fmt.Errorf("config.ai.max_retries must not be negative")
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("config.ai.temperature must be between 0 and 2")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("config.server.addr is required")
	}
	return nil
}

// Timeout returns the AI call deadline as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "ventureline.yml")
}

// Load reads config from the workspace, falling back to defaults when the
// file does not exist.
func Load(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes. Fields left
// unset keep their defaults.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}
