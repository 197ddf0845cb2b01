package config_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"alumni/internal/config"
	"alumni/internal/services"
)

var Module = fx.Provide(
	config.Load,
	provideLogger,
	provideClock,
	fx.Annotate(provideAllowedOrigin, fx.ResultTags(`name:"allowed_origin"`)),
)

func provideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Env == config.EnvProd {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func provideClock(cfg *config.Config) *services.Clock {
	return services.NewClock(cfg.Location())
}

func provideAllowedOrigin(cfg *config.Config) string {
	return cfg.FrontendURL
}
