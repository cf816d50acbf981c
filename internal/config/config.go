package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Dataset  DatasetConfig  `mapstructure:"dataset"`
	Server   ServerConfig   `mapstructure:"server"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DatasetConfig describes where the base readiness CSV lives and how it is cached.
// Location is a file path, an http(s):// URL or an s3://bucket/key URI.
type DatasetConfig struct {
	Location       string        `mapstructure:"location"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"` // 0 = keep for the process lifetime
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
	S3Region       string        `mapstructure:"s3_region"`
	S3Endpoint     string        `mapstructure:"s3_endpoint"`
	S3PathStyle    bool          `mapstructure:"s3_path_style"`
}

// ServerConfig holds HTTP listener configuration
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// AnalysisConfig tunes the statistics shown on the pages
type AnalysisConfig struct {
	StdDev            string `mapstructure:"stddev"` // "sample" or "population"
	GridSize          int    `mapstructure:"grid_size"`
	TopNChoices       []int  `mapstructure:"top_n_choices"`
	DefaultTopN       int    `mapstructure:"default_top_n"`
	LowMaintenanceMax int    `mapstructure:"low_maintenance_max"`
	HistogramBins     int    `mapstructure:"histogram_bins"`
}

// TelegramConfig holds Telegram publishing configuration
type TelegramConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
	Cooldown       time.Duration `mapstructure:"cooldown"`
}

// StorageConfig holds the report archive configuration
type StorageConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	DBPath     string `mapstructure:"db_path"`
	MaxReports int    `mapstructure:"max_reports"` // oldest reports beyond this are rotated out
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
// An empty path skips the file and uses defaults plus environment.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// READINESS_DATASET_LOCATION overrides dataset.location, etc.
	v.SetEnvPrefix("READINESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Dataset defaults
	v.SetDefault("dataset.location", "USAF_100_Base_Data.csv")
	v.SetDefault("dataset.cache_ttl", "0s")
	v.SetDefault("dataset.timeout", "30s")
	v.SetDefault("dataset.max_retries", 3)
	v.SetDefault("dataset.retry_delay_base", "1s")
	v.SetDefault("dataset.s3_region", "us-east-1")
	v.SetDefault("dataset.s3_endpoint", "")
	v.SetDefault("dataset.s3_path_style", false)

	// Server defaults
	v.SetDefault("server.addr", ":8501")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "5s")

	// Analysis defaults
	v.SetDefault("analysis.stddev", "sample")
	v.SetDefault("analysis.grid_size", 30)
	v.SetDefault("analysis.top_n_choices", []int{5, 10, 20})
	v.SetDefault("analysis.default_top_n", 10)
	v.SetDefault("analysis.low_maintenance_max", 2)
	v.SetDefault("analysis.histogram_bins", 10)

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")
	v.SetDefault("telegram.cooldown", "24h")

	// Storage defaults
	v.SetDefault("storage.enabled", true)
	v.SetDefault("storage.db_path", "./data/readiness.db")
	v.SetDefault("storage.max_reports", 500)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Dataset config
	if c.Dataset.Location == "" {
		return fmt.Errorf("dataset.location is required")
	}
	if c.Dataset.CacheTTL < 0 {
		return fmt.Errorf("dataset.cache_ttl must not be negative")
	}
	if c.Dataset.Timeout <= 0 {
		return fmt.Errorf("dataset.timeout must be positive")
	}
	if c.Dataset.MaxRetries < 1 {
		return fmt.Errorf("dataset.max_retries must be at least 1")
	}

	// Validate Server config
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}

	// Validate Analysis config
	if c.Analysis.StdDev != "sample" && c.Analysis.StdDev != "population" {
		return fmt.Errorf("analysis.stddev must be one of: sample, population")
	}
	if c.Analysis.GridSize < 2 {
		return fmt.Errorf("analysis.grid_size must be at least 2")
	}
	if len(c.Analysis.TopNChoices) == 0 {
		return fmt.Errorf("analysis.top_n_choices must contain at least one value")
	}
	defaultListed := false
	for _, n := range c.Analysis.TopNChoices {
		if n < 1 {
			return fmt.Errorf("analysis.top_n_choices values must be at least 1")
		}
		if n == c.Analysis.DefaultTopN {
			defaultListed = true
		}
	}
	if !defaultListed {
		return fmt.Errorf("analysis.default_top_n must be one of analysis.top_n_choices")
	}
	if c.Analysis.LowMaintenanceMax < 0 {
		return fmt.Errorf("analysis.low_maintenance_max must not be negative")
	}
	if c.Analysis.HistogramBins < 1 {
		return fmt.Errorf("analysis.histogram_bins must be at least 1")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}
	if c.Telegram.Cooldown < 0 {
		return fmt.Errorf("telegram.cooldown must not be negative")
	}

	// Validate Storage config
	if c.Storage.Enabled && c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required when storage is enabled")
	}
	if c.Storage.MaxReports < 1 {
		return fmt.Errorf("storage.max_reports must be at least 1")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// UsePopulationStdDev reports whether outlier bands use the population standard deviation
func (a AnalysisConfig) UsePopulationStdDev() bool {
	return a.StdDev == "population"
}
