// Package persistence keeps client-side state (session, settings) in a local SQLite file.
package persistence

import (
	"fmt"

	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

// Database holds the database connection
type Database struct {
	DB *gorm.DB
}

// NewDatabase opens the state database at cfg.Path and migrates its schema
func NewDatabase(cfg *config.StorageConfig) (*Database, error) {
	return NewDatabaseWithLogger(cfg, logger.Silent)
}

// NewDatabaseWithLogger opens the state database with custom gorm log level
func NewDatabaseWithLogger(cfg *config.StorageConfig, logLevel logger.LogLevel) (*Database, error) {
	path := MemoryPath
	if cfg != nil && cfg.Path != "" {
		path = cfg.Path
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:                 logger.Default.LogMode(logLevel),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	// A single connection serialises writers and keeps an in-memory database alive.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping state database: %w", err)
	}
	if err := db.AutoMigrate(&StateEntryModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate state database: %w", err)
	}

	return &Database{DB: db}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}
