// Package config provides configuration loading and validation for the CLI and the selection engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the runtime configuration that can be loaded from a JSON, YAML or TOML file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Input artifacts
	Rubric          string `mapstructure:"rubric"`           // Path to jd_rubric.json
	MasterResume    string `mapstructure:"master_resume"`    // Path to master resume JSON
	Evidence        string `mapstructure:"evidence"`         // Path to evidence_scores.json
	Relevance       string `mapstructure:"relevance"`        // Path to relevance_matrix.json
	Embeddings      string `mapstructure:"embeddings"`       // Path to cached bullet embeddings (optional)
	SelectionConfig string `mapstructure:"selection_config"` // Path to selection config (defaults used if empty)

	// Services
	DatabaseURL       string `mapstructure:"database_url"`       // PostgreSQL connection URL
	APIKey            string `mapstructure:"api_key"`            // Gemini API key for embeddings
	EmbeddingModel    string `mapstructure:"embedding_model"`    // Gemini embedding model name
	AMQPURL           string `mapstructure:"amqp_url"`           // RabbitMQ URL for the worker
	Queue             string `mapstructure:"queue"`              // Queue carrying selection requests
	WorkerConcurrency int    `mapstructure:"worker_concurrency"` // Runs processed in parallel by the worker
	Port              int    `mapstructure:"port"`               // HTTP port

	// Behavior
	Verbose bool `mapstructure:"verbose"` // Print a human readable plan summary
}

// envBindings maps config keys to the environment variables that override them
var envBindings = map[string]string{
	"database_url":    "DATABASE_URL",
	"api_key":         "GEMINI_API_KEY",
	"embedding_model": "EMBEDDING_MODEL",
	"amqp_url":        "AMQP_URL",
}

// LoadConfig loads configuration from a file in any format viper understands.
// Environment variables in envBindings override file values.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, nil
}

// FromEnv builds a Config from environment variables only
func FromEnv() Config {
	return Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		APIKey:         os.Getenv("GEMINI_API_KEY"),
		EmbeddingModel: os.Getenv("EMBEDDING_MODEL"),
		AMQPURL:        os.Getenv("AMQP_URL"),
	}
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.WorkerConcurrency < 0 {
		return fmt.Errorf("config error: 'worker_concurrency' must be non-negative")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}

	// Validate file paths exist (if specified)
	files := map[string]string{
		"rubric":           c.Rubric,
		"master_resume":    c.MasterResume,
		"evidence":         c.Evidence,
		"relevance":        c.Relevance,
		"embeddings":       c.Embeddings,
		"selection_config": c.SelectionConfig,
	}
	for key, path := range files {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("config error: %s file not found: %s", key, path)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	stringFields := []struct {
		dst *string
		src string
	}{
		{&result.Rubric, defaults.Rubric},
		{&result.MasterResume, defaults.MasterResume},
		{&result.Evidence, defaults.Evidence},
		{&result.Relevance, defaults.Relevance},
		{&result.Embeddings, defaults.Embeddings},
		{&result.SelectionConfig, defaults.SelectionConfig},
		{&result.DatabaseURL, defaults.DatabaseURL},
		{&result.APIKey, defaults.APIKey},
		{&result.EmbeddingModel, defaults.EmbeddingModel},
		{&result.AMQPURL, defaults.AMQPURL},
		{&result.Queue, defaults.Queue},
	}
	for _, f := range stringFields {
		if *f.dst == "" {
			*f.dst = f.src
		}
	}

	// Int fields: use default if zero
	if result.WorkerConcurrency == 0 {
		result.WorkerConcurrency = defaults.WorkerConcurrency
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
