package db

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/fittrack/internal/config"
)

// NewDB opens the configured driver and migrates the schema.
//
// TranslateError is on so unique violations surface as gorm.ErrDuplicatedKey
// on both MySQL and SQLite.
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DB.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.DB.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DB.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DB.Driver)
	}

	logLevel := logger.Warn
	if cfg.App.ENV == "development" {
		logLevel = logger.Info // log SQL queries
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate ensures the schema is in sync with models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
