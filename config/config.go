// Package config assembles runtime settings from defaults, an optional TOML
// file, a .env file and the process environment, in that order of
// precedence (later wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"github.com/gsarmaonline/swapmart/database"
	"github.com/gsarmaonline/swapmart/logging"
	"github.com/gsarmaonline/swapmart/server"
	"github.com/gsarmaonline/swapmart/storage"
)

type (
	Config struct {
		Server   server.ServerConfig     `toml:"server"`
		Database database.DatabaseConfig `toml:"database"`
		Auth     AuthConfig              `toml:"auth"`
		Storage  storage.StorageConfig   `toml:"storage"`
		Log      logging.LogConfig       `toml:"log"`
	}

	AuthConfig struct {
		SecretKey string        `toml:"secret_key" env:"JWT_SECRET_KEY"`
		TokenTTL  time.Duration `toml:"token_ttl" env:"SWAPMART_TOKEN_TTL"`
	}
)

// Default returns the settings used when nothing overrides them
func Default() *Config {
	return &Config{
		Server: server.ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  "*",
			AuthRateLimit:   5,
			AuthRateBurst:   10,
		},
		Database: database.DatabaseConfig{
			Driver:        database.DriverSQLite,
			DSN:           "swapmart.db",
			SlowThreshold: time.Second,
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Storage: storage.StorageConfig{
			Backend:   storage.BackendLocal,
			LocalRoot: "media",
			BaseURL:   "/media",
			MaxUpload: 10 << 20,
		},
		Log: logging.LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration. path may be empty; envFile is ignored when
// it does not exist.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode config file %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	if cfg.Auth.SecretKey == "" {
		return errors.New("JWT_SECRET_KEY environment variable is not set")
	}
	if cfg.Auth.TokenTTL <= 0 {
		return errors.New("auth token TTL must be positive")
	}
	switch cfg.Database.Driver {
	case database.DriverSQLite, database.DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	switch cfg.Storage.Backend {
	case storage.BackendLocal:
	case storage.BackendS3:
		if cfg.Storage.S3Bucket == "" {
			return errors.New("storage s3_bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
	return nil
}
