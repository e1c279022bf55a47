package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from the environment.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`
	Port     int    `mapstructure:"port"`

	AirtableBaseID    string `mapstructure:"airtable_base_id"`
	AirtableTableName string `mapstructure:"airtable_table_name"`
	AirtablePAT       string `mapstructure:"airtable_pat"`
	AirtableAPIURL    string `mapstructure:"airtable_api_url"`

	AirtableTimeoutSeconds int64         `mapstructure:"airtable_timeout_seconds"`
	AirtableTimeout        time.Duration `mapstructure:"-"`

	SinksFile string `mapstructure:"sinks_file"`
}

// Load reads configuration from environment variables and an optional .env file.
// The three Airtable settings are required; Load fails when any is missing so the
// process never starts half-configured.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()

	v.SetDefault("app_name", "airtable-delete-relay")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("port", 3000)
	v.SetDefault("airtable_base_id", "")
	v.SetDefault("airtable_table_name", "")
	v.SetDefault("airtable_pat", "")
	v.SetDefault("airtable_api_url", "https://api.airtable.com/v0")
	v.SetDefault("airtable_timeout_seconds", 0) // 0 disables the outbound timeout
	v.SetDefault("sinks_file", "")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.AirtableBaseID = strings.TrimSpace(cfg.AirtableBaseID)
	cfg.AirtableTableName = strings.TrimSpace(cfg.AirtableTableName)
	cfg.AirtablePAT = strings.TrimSpace(cfg.AirtablePAT)

	if cfg.AirtableBaseID == "" {
		return nil, fmt.Errorf("AIRTABLE_BASE_ID is required")
	}
	if cfg.AirtableTableName == "" {
		return nil, fmt.Errorf("AIRTABLE_TABLE_NAME is required")
	}
	if cfg.AirtablePAT == "" {
		return nil, fmt.Errorf("AIRTABLE_PAT is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.AirtableTimeoutSeconds < 0 {
		return nil, fmt.Errorf("invalid airtable_timeout_seconds (must not be negative)")
	}
	cfg.AirtableTimeout = time.Duration(cfg.AirtableTimeoutSeconds) * time.Second

	return &cfg, nil
}
