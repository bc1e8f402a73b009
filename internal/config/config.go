// Package config loads the application configuration with viper:
// defaults, then configs/config.yaml, then environment overrides
// (SERVER_PORT, CACHE_ADDR, ...).
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config maps the full application configuration.
type Config struct {
	Server struct {
		Port    int    `mapstructure:"port"`
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"server"`

	Database struct {
		Name string `mapstructure:"name"`
	} `mapstructure:"database"`

	// Analytics controls the asynchronous click ingestion pool.
	Analytics struct {
		BufferSize  int `mapstructure:"buffer_size"`
		WorkerCount int `mapstructure:"worker_count"`
	} `mapstructure:"analytics"`

	// Cache configures the optional Redis link cache on the resolve
	// path. Disabled by default; the service runs DB-only without it.
	Cache struct {
		Enabled    bool   `mapstructure:"enabled"`
		Addr       string `mapstructure:"addr"`
		Password   string `mapstructure:"password"`
		DB         int    `mapstructure:"db"`
		TTLMinutes int    `mapstructure:"ttl_minutes"`
	} `mapstructure:"cache"`

	Sweeper struct {
		IntervalMinutes int `mapstructure:"interval_minutes"`
	} `mapstructure:"sweeper"`

	Log struct {
		Level      string `mapstructure:"level"`
		File       string `mapstructure:"file"`
		MaxSizeMB  int    `mapstructure:"max_size_mb"`
		MaxBackups int    `mapstructure:"max_backups"`
		MaxAgeDays int    `mapstructure:"max_age_days"`
		Compress   bool   `mapstructure:"compress"`
		Console    bool   `mapstructure:"console"`
	} `mapstructure:"log"`
}

// LoadConfig reads the configuration. A missing config file is not an
// error; defaults and environment variables apply.
func LoadConfig() (*Config, error) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.AddConfigPath("./configs")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.base_url", "http://localhost:8080")
	viper.SetDefault("database.name", "shortly.db")
	viper.SetDefault("analytics.buffer_size", 1000)
	viper.SetDefault("analytics.worker_count", 5)
	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.addr", "localhost:6379")
	viper.SetDefault("cache.db", 0)
	viper.SetDefault("cache.ttl_minutes", 60)
	viper.SetDefault("sweeper.interval_minutes", 5)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.max_size_mb", 100)
	viper.SetDefault("log.max_backups", 3)
	viper.SetDefault("log.max_age_days", 7)
	viper.SetDefault("log.console", true)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}
