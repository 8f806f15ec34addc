package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Catalog  CatalogConfig
	Images   ImagesConfig
	Upstream UpstreamConfig
	Log      LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CatalogConfig holds recipe catalog endpoint configuration
type CatalogConfig struct {
	Endpoint    string        `mapstructure:"endpoint"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

// ImagesConfig holds image cache configuration
type ImagesConfig struct {
	CacheDir      string        `mapstructure:"cache_dir"` // empty: <user cache dir>/RecipeImageCache
	MemoryEntries int           `mapstructure:"memory_entries"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxBytes      int64         `mapstructure:"max_bytes"`
	Dedup         bool          `mapstructure:"dedup"`
}

// UpstreamConfig limits outbound request rate per client
type UpstreamConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/recipebox/")

	// RECIPEBOX_CATALOG_ENDPOINT -> catalog.endpoint
	v.SetEnvPrefix("RECIPEBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	// Catalog defaults
	v.SetDefault("catalog.endpoint", "https://d3jbb8n5wk0qxi.cloudfront.net/recipes.json")
	v.SetDefault("catalog.timeout", "30s")
	v.SetDefault("catalog.max_attempts", 3)

	// Image cache defaults
	v.SetDefault("images.cache_dir", "")
	v.SetDefault("images.memory_entries", 256)
	v.SetDefault("images.timeout", "30s")
	v.SetDefault("images.max_bytes", 10<<20)
	v.SetDefault("images.dedup", true)

	// Upstream rate limit defaults
	v.SetDefault("upstream.requests_per_second", 20.0)
	v.SetDefault("upstream.burst", 40)

	// Logging defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// validate validates the configuration.
// The catalog endpoint is not parsed here; the catalog client reports a
// malformed endpoint when it fetches.
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required (set RECIPEBOX_SERVER_PORT)")
	}

	if config.Catalog.MaxAttempts < 1 {
		return fmt.Errorf("catalog max_attempts must be at least 1, got: %d", config.Catalog.MaxAttempts)
	}

	if config.Catalog.Timeout <= 0 || config.Images.Timeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}

	if config.Images.MemoryEntries < 1 {
		return fmt.Errorf("images memory_entries must be at least 1, got: %d", config.Images.MemoryEntries)
	}

	if config.Images.MaxBytes < 1 {
		return fmt.Errorf("images max_bytes must be positive, got: %d", config.Images.MaxBytes)
	}

	if config.Upstream.RequestsPerSecond < 0 {
		return fmt.Errorf("upstream requests_per_second must not be negative")
	}

	if config.Log.Format != "json" && config.Log.Format != "console" {
		return fmt.Errorf("log format must be 'json' or 'console', got: %s", config.Log.Format)
	}

	return nil
}
