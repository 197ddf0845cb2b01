package infra

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"alumni/internal/config"
	"alumni/internal/models/db_models"
)

func InitPostgresql(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}
	if cfg.Env == config.EnvProd {
		gormCfg.Logger = logger.Default.LogMode(logger.Error)
	}

	connectionPool, err := gorm.Open(postgres.Open(cfg.PostgresURL), gormCfg)
	if err != nil {
		log.Error("error connecting to database", zap.Error(err))
		return nil, fmt.Errorf("infra.InitPostgresql: %w", err)
	}

	return connectionPool, nil
}

// AutoMigrate creates or updates every table, index and constraint the
// repositories rely on, including the unique keys that make registration and
// payment reconciliation safe under concurrent writers.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(db_models.All()...); err != nil {
		return fmt.Errorf("infra.AutoMigrate: %w", err)
	}
	return nil
}

func ClosePostgresql(db *gorm.DB, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Error("error getting database instance", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Error("error closing database connection", zap.Error(err))
	} else {
		log.Info("database connection closed")
	}
}

// DBPinger adapts a gorm handle for health checks.
type DBPinger struct {
	DB *gorm.DB
}

func (p DBPinger) Ping(ctx context.Context) error {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
