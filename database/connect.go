package database

import (
	"fmt"
	"sync"
	"time"

	"github.com/krishkalaria12/snap-upload/config"
	"github.com/krishkalaria12/snap-upload/logging"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	instance *gorm.DB
	once     sync.Once
)

// GetDB returns the shared connection, opening it on first use.
func GetDB() *gorm.DB {
	once.Do(func() {
		if instance != nil {
			return
		}
		db, err := Connect(config.Config("DATABASE_URL"))
		if err != nil {
			logging.L().Fatal("Failed to connect to database", zap.Error(err))
		}
		instance = db
	})

	return instance
}

// SetDB replaces the shared connection. Tests use it to install an sqlite database.
func SetDB(db *gorm.DB) {
	instance = db
}

// Connect opens a postgres connection and configures its pool.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// Get the underlying SQL DB object for connection pooling
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get DB object: %w", err)
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	logging.L().Info("Successfully connected to postgres database")
	return db, nil
}

// MigrateModels runs auto migration for your models
func MigrateModels(models ...interface{}) error {
	db := GetDB()
	return db.AutoMigrate(models...)
}

func CloseDB() error {
	if instance != nil {
		sqlDB, err := instance.DB()
		if err != nil {
			return err
		}

		return sqlDB.Close()
	}

	return nil
}
