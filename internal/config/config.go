package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Dataset sources
const (
	SourceCSV      = "csv"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
)

// Config represents the complete application configuration
type Config struct {
	Dataset  DatasetConfig  `mapstructure:"dataset"`
	Models   ModelsConfig   `mapstructure:"models"`
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DatasetConfig locates the historical valuation table
type DatasetConfig struct {
	Source string `mapstructure:"source"` // csv, sqlite or postgres
	Path   string `mapstructure:"path"`   // CSV file or SQLite database file
	DSN    string `mapstructure:"dsn"`    // Postgres connection string
	Table  string `mapstructure:"table"`  // table name for SQL sources
}

// ModelsConfig holds the pretrained artifact paths
type ModelsConfig struct {
	CatBoostPath string `mapstructure:"catboost_path"`
	LightGBMPath string `mapstructure:"lightgbm_path"`
	MetaPath     string `mapstructure:"meta_path"`
}

// ServerConfig holds the operator HTTP endpoint configuration
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// StorageConfig holds estimate history configuration
type StorageConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DBPath       string `mapstructure:"db_path"`
	MaxEstimates int    `mapstructure:"max_estimates"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set config file
	v.SetConfigFile(path)

	// Set defaults
	setDefaults(v)

	// Enable environment variable override, e.g. LANDORACLE_DATASET_PATH
	v.SetEnvPrefix("LANDORACLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Dataset defaults
	v.SetDefault("dataset.source", SourceCSV)
	v.SetDefault("dataset.path", "./data/land_cleaned.csv")
	v.SetDefault("dataset.dsn", "")
	v.SetDefault("dataset.table", "land_records")

	// Model defaults
	v.SetDefault("models.catboost_path", "./models/final_catboost.json")
	v.SetDefault("models.lightgbm_path", "./models/final_lgb.json")
	v.SetDefault("models.meta_path", "./models/meta_ridge.json")

	// Server defaults
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.addr", ":8080")

	// Storage defaults
	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.db_path", "./data/estimates.db")
	v.SetDefault("storage.max_estimates", 10000)

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Dataset config
	switch c.Dataset.Source {
	case SourceCSV:
		if c.Dataset.Path == "" {
			return fmt.Errorf("dataset.path is required for csv source")
		}
	case SourceSQLite:
		if c.Dataset.Path == "" {
			return fmt.Errorf("dataset.path is required for sqlite source")
		}
		if c.Dataset.Table == "" {
			return fmt.Errorf("dataset.table is required for sqlite source")
		}
	case SourcePostgres:
		if c.Dataset.DSN == "" {
			return fmt.Errorf("dataset.dsn is required for postgres source")
		}
		if c.Dataset.Table == "" {
			return fmt.Errorf("dataset.table is required for postgres source")
		}
	default:
		return fmt.Errorf("dataset.source must be one of: csv, sqlite, postgres")
	}

	// Validate Models config
	if c.Models.CatBoostPath == "" {
		return fmt.Errorf("models.catboost_path is required")
	}
	if c.Models.LightGBMPath == "" {
		return fmt.Errorf("models.lightgbm_path is required")
	}
	if c.Models.MetaPath == "" {
		return fmt.Errorf("models.meta_path is required")
	}

	// Validate Server config
	if c.Server.Enabled && c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required when server is enabled")
	}

	// Validate Storage config
	if c.Storage.Enabled {
		if c.Storage.DBPath == "" {
			return fmt.Errorf("storage.db_path is required when storage is enabled")
		}
		if c.Storage.MaxEstimates < 1 {
			return fmt.Errorf("storage.max_estimates must be at least 1")
		}
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.MaxRetries < 1 {
			return fmt.Errorf("telegram.max_retries must be at least 1")
		}
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
