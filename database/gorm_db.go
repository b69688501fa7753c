package database

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/camden-git/moviesysbackend/models"
)

// InitGormDB initializes and returns a GORM database instance over SQLite.
// SQL statements are logged at debug level when verbose is set.
func InitGormDB(dataSourceName string, pool PoolOptions, verbose bool) (*gorm.DB, error) {
	level := logger.Warn
	if verbose {
		level = logger.Info
	}
	gormWriter := log.With().Str("component", "gorm").Logger().Level(zerolog.DebugLevel)
	gormLogger := logger.New(
		&gormWriter,
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(dataSourceName), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database using GORM: %w", err)
	}

	// match the journal mode InitDB sets for the sql backend
	if err := db.Exec("PRAGMA journal_mode=WAL;").Error; err != nil {
		log.Warn().Err(err).Msg("failed to set WAL mode")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB from GORM: %w", err)
	}

	maxIdle, maxOpen, lifetime := 10, 100, time.Hour
	if pool.MaxIdleConns > 0 {
		maxIdle = pool.MaxIdleConns
	}
	if pool.MaxOpenConns > 0 {
		maxOpen = pool.MaxOpenConns
	}
	if pool.ConnMaxLifetime > 0 {
		lifetime = pool.ConnMaxLifetime
	}
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetConnMaxLifetime(lifetime)

	log.Info().Msg("GORM database initialized successfully")
	return db, nil
}

// AutoMigrateModels creates or updates the catalog tables.
func AutoMigrateModels(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Actor{},
		&models.Movie{},
	)
	if err != nil {
		return fmt.Errorf("GORM AutoMigrate failed: %w", err)
	}
	log.Info().Msg("GORM AutoMigrate completed successfully")
	return nil
}
