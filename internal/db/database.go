package db

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ikkim/provider-portal-backend/config"
	appLogger "github.com/ikkim/provider-portal-backend/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	instance *gorm.DB
	initErr  error
	once     sync.Once
)

// ErrNotInitialized is returned by accessors used before Initialize.
var ErrNotInitialized = errors.New("database not initialized")

// Initialize opens the process-wide connection. Only the first call connects;
// later calls return the outcome of that first attempt.
func Initialize(cfg *config.DatabaseConfig) error {
	once.Do(func() {
		instance, initErr = open(cfg)
	})
	return initErr
}

func open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	appLogger.Info("Connecting to database", map[string]interface{}{
		"max_idle_conns": cfg.MaxIdleConns,
		"max_open_conns": cfg.MaxOpenConns,
	})

	conn, err := gorm.Open(postgres.Open(cfg.URL), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent), // Use silent mode, we'll use our own logger
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)

	appLogger.Info("Database connection established successfully")
	return conn, nil
}

// Close closes the database connection
func Close() error {
	if instance == nil {
		return ErrNotInitialized
	}
	sqlDB, err := instance.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the database instance, or nil before Initialize succeeds.
func GetDB() *gorm.DB {
	return instance
}
