package db_fx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"alumni/internal/config"
	"alumni/internal/infra"
	"alumni/internal/repositories"
)

var Module = fx.Provide(
	provideDB, repositories.NewTransactor)

func provideDB(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := infra.InitPostgresql(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := infra.AutoMigrate(db); err != nil {
		infra.ClosePostgresql(db, log)
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			infra.ClosePostgresql(db, log)
			return nil
		},
	})
	return db, nil
}
