package db

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uclergnlts/tav-egitim/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// retryDelay is the pause between connection attempts.
var retryDelay = 2 * time.Second

// Connect opens the configured database, retrying so that Postgres has time
// to start alongside the application.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	var target string
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.Path)
		target = cfg.Path
	case "postgres", "":
		dsn := cfg.DSN()
		dialector = postgres.Open(dsn)
		target = config.MaskDSN(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	level := logger.Silent
	if cfg.Debug {
		level = logger.Info
	}
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(level), TranslateError: true}

	attempts := cfg.ConnectRetries
	if attempts < 1 {
		attempts = 1
	}
	var db *gorm.DB
	var err error
	for i := 1; i <= attempts; i++ {
		db, err = gorm.Open(dialector, gormCfg)
		if err == nil {
			err = db.Exec("SELECT 1").Error
		}
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", i).Int("of", attempts).Msg("database connection failed")
		if i < attempts {
			time.Sleep(retryDelay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect database after %d attempts: %w", attempts, err)
	}
	log.Info().Str("driver", cfg.Driver).Str("target", target).Msg("database connected")
	return db, nil
}
