package config

import (
	"strings"

	"github.com/photodex/photodex/pkg/errors"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Library location. Exactly one of these may be set; LibraryPath points
	// at a library bundle, DBPath directly at the database file.
	LibraryPath string `mapstructure:"library"`
	DBPath      string `mapstructure:"db"`

	// Working directory for downloaded and extracted libraries
	WorkDir string `mapstructure:"work-dir"`

	// S3 configuration for archived library retrieval
	S3Bucket string `mapstructure:"s3-bucket"`
	S3Region string `mapstructure:"s3-region"`

	// Extraction limits for fetched library archives
	MaxFileSize         int64   `mapstructure:"max-file-size"`
	MaxTotalSize        int64   `mapstructure:"max-total-size"`
	MaxCompressionRatio float64 `mapstructure:"max-compression-ratio"`
}

// Load reads configuration from environment, config file, and defaults
func Load() (*Config, error) {
	viper.SetDefault("library", "")
	viper.SetDefault("db", "")
	viper.SetDefault("work-dir", "/tmp/photodex")
	viper.SetDefault("s3-bucket", "")
	viper.SetDefault("s3-region", "us-east-1")
	viper.SetDefault("max-file-size", 4*1024*1024*1024)
	viper.SetDefault("max-total-size", 64*1024*1024*1024)
	viper.SetDefault("max-compression-ratio", 100.0)

	// Environment variables (PHOTODEX_LIBRARY, PHOTODEX_WORK_DIR, ...)
	viper.SetEnvPrefix("PHOTODEX")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// Config file (optional)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.photodex")
	_ = viper.ReadInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	return &cfg, nil
}

// Validate checks configuration for errors. Surfaced before any I/O.
func (c *Config) Validate() error {
	if c.LibraryPath != "" && c.DBPath != "" {
		return errors.Configurationf("library and db are mutually exclusive")
	}
	if c.WorkDir == "" {
		return errors.Configurationf("work-dir cannot be empty")
	}
	if c.MaxFileSize <= 0 {
		return errors.Configurationf("max-file-size must be positive")
	}
	if c.MaxTotalSize <= 0 {
		return errors.Configurationf("max-total-size must be positive")
	}
	if c.MaxCompressionRatio <= 0 {
		return errors.Configurationf("max-compression-ratio must be positive")
	}
	return nil
}
