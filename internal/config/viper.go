package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Data struct {
		InputDir      string `mapstructure:"input_dir" yaml:"input_dir"`
		ReportsDir    string `mapstructure:"reports_dir" yaml:"reports_dir"`
		CacheDir      string `mapstructure:"cache_dir" yaml:"cache_dir"`
		MappingsDir   string `mapstructure:"mappings_dir" yaml:"mappings_dir"`
		ColumnAliases string `mapstructure:"column_aliases" yaml:"column_aliases"`
	} `mapstructure:"data" yaml:"data"`

	AMS struct {
		APIURL           string  `mapstructure:"api_url" yaml:"api_url"`
		Token            string  `mapstructure:"token" yaml:"-"` // Never serialize the token
		PageSize         int     `mapstructure:"page_size" yaml:"page_size"`
		MaxRetries       int     `mapstructure:"max_retries" yaml:"max_retries"`
		RetryDelaySecs   int     `mapstructure:"retry_delay_seconds" yaml:"retry_delay_seconds"`
		UploadWorkers    int     `mapstructure:"upload_workers" yaml:"upload_workers"`
		UploadsPerSecond float64 `mapstructure:"uploads_per_second" yaml:"uploads_per_second"`
		CacheTTLMinutes  int     `mapstructure:"cache_ttl_minutes" yaml:"cache_ttl_minutes"`
	} `mapstructure:"ams" yaml:"ams"`

	Migration struct {
		DefaultCommissionRate float64 `mapstructure:"default_commission_rate" yaml:"default_commission_rate"`
		DryRun                bool    `mapstructure:"dry_run" yaml:"dry_run"`
		UseCache              bool    `mapstructure:"use_cache" yaml:"use_cache"`
		SkipAMSFetch          bool    `mapstructure:"skip_ams_fetch" yaml:"skip_ams_fetch"`
	} `mapstructure:"migration" yaml:"migration"`

	GitHub struct {
		Token  string `mapstructure:"token" yaml:"-"` // Never serialize the token
		Owner  string `mapstructure:"owner" yaml:"owner"`
		Repo   string `mapstructure:"repo" yaml:"repo"`
		Branch string `mapstructure:"branch" yaml:"branch"`
	} `mapstructure:"github" yaml:"github"`
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.policy-migration")
	v.AddConfigPath(".policy-migration")
	v.AddConfigPath(".")

	// 3. Environment variables
	v.SetEnvPrefix("PM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Log the error but don't fail - continue with defaults and env vars
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	// 5. Tokens always come from the conventional unprefixed variables too
	if err := v.BindEnv("ams.token", "AMS_API_TOKEN"); err != nil {
		fmt.Printf("Warning: failed to bind AMS_API_TOKEN environment variable: %v\n", err)
	}
	if err := v.BindEnv("github.token", "GITHUB_TOKEN"); err != nil {
		fmt.Printf("Warning: failed to bind GITHUB_TOKEN environment variable: %v\n", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("data.input_dir", "data/input")
	v.SetDefault("data.reports_dir", "data/reports")
	v.SetDefault("data.cache_dir", "data/cache")
	v.SetDefault("data.mappings_dir", "data/mappings")
	v.SetDefault("data.column_aliases", "")

	v.SetDefault("ams.api_url", "https://ams.jmggo.com/api/method")
	v.SetDefault("ams.page_size", 1000)
	v.SetDefault("ams.max_retries", 3)
	v.SetDefault("ams.retry_delay_seconds", 2)
	v.SetDefault("ams.upload_workers", 8)
	v.SetDefault("ams.uploads_per_second", 10.0)
	v.SetDefault("ams.cache_ttl_minutes", 30)

	v.SetDefault("migration.default_commission_rate", 15.0)
	v.SetDefault("migration.dry_run", true)
	v.SetDefault("migration.use_cache", true)
	v.SetDefault("migration.skip_ams_fetch", false)

	v.SetDefault("github.owner", "grijalva10")
	v.SetDefault("github.repo", "insurance_policy_migration")
	v.SetDefault("github.branch", "main")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if config.AMS.PageSize < 1 {
		return fmt.Errorf("ams.page_size must be positive, got: %d", config.AMS.PageSize)
	}

	if config.AMS.MaxRetries < 1 || config.AMS.MaxRetries > 10 {
		return fmt.Errorf("ams.max_retries must be between 1 and 10, got: %d", config.AMS.MaxRetries)
	}

	if config.AMS.UploadWorkers < 1 {
		return fmt.Errorf("ams.upload_workers must be positive, got: %d", config.AMS.UploadWorkers)
	}

	if config.Migration.DefaultCommissionRate < 0 || config.Migration.DefaultCommissionRate > 100 {
		return fmt.Errorf("migration.default_commission_rate must be between 0 and 100, got: %f", config.Migration.DefaultCommissionRate)
	}

	return nil
}

// ConfigureLoggingFromConfig configures logging based on the Config struct
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
