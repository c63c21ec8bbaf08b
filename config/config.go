// Package config loads runtime configuration from environment variables.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration. Every field maps 1:1 to an
// environment variable.
type Config struct {
	// Server
	Port int    `mapstructure:"PORT"`
	Env  string `mapstructure:"APP_ENV"` // development | production

	// Database
	DBPath string `mapstructure:"DB_PATH"`

	// Logging
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Catch-up scheduler
	SchedulerEnabled         bool `mapstructure:"SCHEDULER_ENABLED"`
	SchedulerIntervalMinutes int  `mapstructure:"SCHEDULER_INTERVAL_MINUTES"`
}

// SchedulerInterval returns the scheduler tick as a duration.
func (c *Config) SchedulerInterval() time.Duration {
	return time.Duration(c.SchedulerIntervalMinutes) * time.Minute
}

// Load reads configuration from environment variables (and optional .env
// file for local development).
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Sensible defaults for development
	viper.SetDefault("PORT", 8080)
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("DB_PATH", "assets.db")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("SCHEDULER_ENABLED", true)
	viper.SetDefault("SCHEDULER_INTERVAL_MINUTES", 60)

	// Optional .env file - does not fail if missing
	_ = viper.ReadInConfig()

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
