// Package config manages application configuration from default values,
// config.yaml, and EGAI_-prefixed environment variables.
package config

import (
	"errors"
	"time"
)

// ErrConfiguration wraps all configuration loading and validation failures.
var ErrConfiguration = errors.New("configuration error")

// Config defines the application configuration for all components:
// logging, HTTP server, Gemini integration, database, and scheduler.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LogConfig controls log verbosity and output format.
type LogConfig struct {
	Level  string `mapstructure:"level"  validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// ServerConfig controls the HTTP surface consumed by the web UI.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"             validate:"required"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=1s,max=1m"`
}

// DatabaseConfig controls the SQLite persistence medium.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// GeminiConfig controls the hosted text and speech model integration.
type GeminiConfig struct {
	APIKey            string        `mapstructure:"api_key"             validate:"required"`
	TextModel         string        `mapstructure:"text_model"          validate:"required"`
	SpeechModel       string        `mapstructure:"speech_model"        validate:"required"`
	Temperature       float32       `mapstructure:"temperature"         validate:"min=0,max=2"`
	Timeout           time.Duration `mapstructure:"timeout"             validate:"min=1s,max=10m"`
	MaxRetries        int           `mapstructure:"max_retries"         validate:"min=0,max=5"`
	RetryDelaySeconds int           `mapstructure:"retry_delay_seconds" validate:"min=1,max=60"`
}

// TaskConfig describes one scheduled task entry.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultServerAddr      = ":8080"
	DefaultShutdownTimeout = 10 * time.Second

	DefaultDBPath = "egai.db"

	// Model identifiers match the hosted service the web client was built
	// against.
	DefaultGeminiTextModel   = "gemini-3-flash-preview"
	DefaultGeminiSpeechModel = "gemini-2.5-flash-preview-tts"

	DefaultGeminiTemperature       = float32(1.0)
	DefaultGeminiTimeout           = 2 * time.Minute
	DefaultGeminiMaxRetries        = 2
	DefaultGeminiRetryDelaySeconds = 5
)
