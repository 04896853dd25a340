// Package database holds the gorm connection helpers and the relational
// model of daily plant snapshots.
package database

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewGormLogger routes gorm's own messages through zap. Only warnings and
// slow statements are reported.
func NewGormLogger(z *zap.Logger) logger.Interface {
	return logger.New(
		zap.NewStdLog(z),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// CreateConnection opens a gorm connection to a PostgreSQL/TimescaleDB
// database.
func CreateConnection(connectionString string, logger *zap.SugaredLogger) (*gorm.DB, error) {
	logger.Info("connecting to TimescaleDB...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{
		Logger: NewGormLogger(logger.Desugar()),
	})
	if err != nil {
		logger.Warnw("unable to create a TimescaleDB connection", "error", err)
		return nil, err
	}
	logger.Info("TimescaleDB connection successful")

	return db, nil
}
