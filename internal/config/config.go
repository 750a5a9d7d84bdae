// Package config provides configuration loading and validation for the
// telephony bridge. Configuration comes from an optional YAML file with
// environment variable overrides, is validated once at startup, and is never
// mutated afterwards.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/goccy/go-yaml"
)

// Defaults applied when neither the config file nor the environment sets a
// value.
const (
	DefaultPort        = 8080
	DefaultModel       = "gpt-4o-realtime-preview-2024-10-01"
	DefaultVoice       = "alloy"
	DefaultBaseURL     = "wss://api.openai.com/v1/realtime"
	DefaultTemperature = 0.8

	// DefaultInstructions is the agent persona used when a deployment does
	// not supply its own.
	DefaultInstructions = "You are a helpful and friendly phone assistant. " +
		"Keep your answers short and conversational, the caller hears them over the phone."
)

// Config is the complete service configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	OpenAI  OpenAIConfig  `yaml:"openai"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig contains the HTTP listener configuration.
type ServerConfig struct {
	Port int `yaml:"port"`

	// PublicHost is the externally visible host used in generated
	// call-control documents. Empty means use the request host.
	PublicHost string `yaml:"public_host"`
}

// OpenAIConfig contains the realtime backend configuration.
type OpenAIConfig struct {
	APIKey       string  `yaml:"api_key"`
	Model        string  `yaml:"model"`
	Voice        string  `yaml:"voice"`
	Instructions string  `yaml:"instructions"`
	Temperature  float64 `yaml:"temperature"`

	// BaseURL is the realtime WebSocket endpoint. Overridable for tests.
	BaseURL string `yaml:"base_url"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`

	// File, when set, sends logs to a rotating file instead of stderr.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Load builds the configuration from the optional YAML file at path, applies
// environment overrides, and validates the result. An empty path skips the
// file and uses environment and defaults only.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port: DefaultPort,
		},
		OpenAI: OpenAIConfig{
			Model:        DefaultModel,
			Voice:        DefaultVoice,
			Instructions: DefaultInstructions,
			Temperature:  DefaultTemperature,
			BaseURL:      DefaultBaseURL,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("PUBLIC_HOST"); v != "" {
		c.Server.PublicHost = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_REALTIME_MODEL"); v != "" {
		c.OpenAI.Model = v
	}
	if v := os.Getenv("OPENAI_VOICE"); v != "" {
		c.OpenAI.Voice = v
	}
	if v := os.Getenv("OPENAI_INSTRUCTIONS"); v != "" {
		c.OpenAI.Instructions = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	return nil
}

// Validate performs validation of the complete configuration.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.OpenAI.Validate(); err != nil {
		return fmt.Errorf("openai config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

// Validate validates the server configuration.
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}
	return nil
}

// Validate validates the backend configuration.
func (o *OpenAIConfig) Validate() error {
	if o.APIKey == "" {
		return fmt.Errorf("api_key cannot be empty")
	}
	if o.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if o.Voice == "" {
		return fmt.Errorf("voice cannot be empty")
	}
	if o.BaseURL == "" {
		return fmt.Errorf("base_url cannot be empty")
	}
	// The realtime endpoint only accepts temperatures in [0.6, 1.2].
	if o.Temperature < 0.6 || o.Temperature > 1.2 {
		return fmt.Errorf("temperature must be between 0.6 and 1.2, got %g", o.Temperature)
	}
	return nil
}

// Validate validates the logging configuration.
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	if l.File != "" && l.MaxSizeMB < 0 {
		return fmt.Errorf("max_size_mb cannot be negative, got %d", l.MaxSizeMB)
	}
	return nil
}
