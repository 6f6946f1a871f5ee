package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load loads and validates configuration from:
// 1. Default values
// 2. config.yaml file
// 3. EGAI_* environment variables
func Load() (*Config, error) {
	setDefaults()

	if err := readConfig(); err != nil {
		return nil, fmt.Errorf("%w: failed to load config file: %v", ErrConfiguration, err)
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return cfg, nil
}

// readConfig initializes and loads the configuration using viper.
func readConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("EGAI")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Allow missing config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %v", err)
		}
		// Config file not found is okay, we'll use defaults
	}

	return nil
}

// setDefaults sets default values for optional configuration parameters.
func setDefaults() {
	viper.SetDefault("log.level", DefaultLogLevel)
	viper.SetDefault("log.format", DefaultLogFormat)

	viper.SetDefault("server.addr", DefaultServerAddr)
	viper.SetDefault("server.allowed_origins", []string{"*"})
	viper.SetDefault("server.shutdown_timeout", DefaultShutdownTimeout)

	viper.SetDefault("database.path", DefaultDBPath)

	viper.SetDefault("gemini.text_model", DefaultGeminiTextModel)
	viper.SetDefault("gemini.speech_model", DefaultGeminiSpeechModel)
	viper.SetDefault("gemini.temperature", DefaultGeminiTemperature)
	viper.SetDefault("gemini.timeout", DefaultGeminiTimeout)
	viper.SetDefault("gemini.max_retries", DefaultGeminiMaxRetries)
	viper.SetDefault("gemini.retry_delay_seconds", DefaultGeminiRetryDelaySeconds)

	viper.SetDefault("scheduler.tasks", map[string]TaskConfig{
		"sql_maintenance": {Enabled: true, Schedule: "0 0 4 * * *"},
		"vitals_refresh":  {Enabled: true, Schedule: "*/30 * * * * *"},
	})
}
