// Package database opens the gorm connection used by every plugin.
package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type (
	DatabaseConfig struct {
		Driver        string        `toml:"driver" env:"SWAPMART_DB_DRIVER"`
		DSN           string        `toml:"dsn" env:"SWAPMART_DB_DSN"`
		MaxOpenConns  int           `toml:"max_open_conns" env:"SWAPMART_DB_MAX_OPEN_CONNS"`
		SlowThreshold time.Duration `toml:"slow_threshold" env:"SWAPMART_DB_SLOW_THRESHOLD"`
	}
)

// Open connects to the configured database. SQLite connections always
// enable foreign keys so deletes cascade.
func Open(cfg DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverSQLite, "":
		dialector = sqlite.Open(sqliteDSN(cfg.DSN))
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         NewLogger(logger, cfg.SlowThreshold),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database handle: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

func sqliteDSN(dsn string) string {
	if dsn == "" {
		dsn = "swapmart.db"
	}
	sep := "?"
	for _, r := range dsn {
		if r == '?' {
			sep = "&"
			break
		}
	}
	return dsn + sep + "_foreign_keys=1"
}
