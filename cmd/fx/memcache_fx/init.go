package memcache_fx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"alumni/internal/config"
	mem "alumni/pkg/memcache"
)

var Module = fx.Provide(provideResetTokenStore)

// provideResetTokenStore keeps reset tokens in Redis when REDIS_ADDR is set, so
// they survive restarts and work across replicas.
func provideResetTokenStore(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) mem.ResetTokenStore {
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set, reset tokens kept in memory")
		return mem.NewResetTokens()
	}

	store := mem.NewRedisResetTokens(cfg.RedisAddr)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := store.Ping(ctx); err != nil {
				log.Warn("redis not reachable at startup", zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return store.Close()
		},
	})
	return store
}
