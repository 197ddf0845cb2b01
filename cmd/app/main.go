package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"alumni/cmd/fx/account_fx"
	"alumni/cmd/fx/config_fx"
	"alumni/cmd/fx/controllers_fx"
	"alumni/cmd/fx/db_fx"
	"alumni/cmd/fx/event_fx"
	"alumni/cmd/fx/membership_fx"
	"alumni/cmd/fx/memcache_fx"
	"alumni/cmd/fx/payment_service_fx"
	"alumni/cmd/fx/publisher_fx"
	"alumni/internal/api"
	"alumni/internal/config"
)

func main() {
	app := fx.New(
		config_fx.Module,
		db_fx.Module,
		publisher_fx.Module,
		memcache_fx.Module,
		account_fx.Module,
		event_fx.Module,
		membership_fx.Module,
		payment_service_fx.Module,
		controllers_fx.Module,

		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Provide(api.NewRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, cfg *config.Config, engine *gin.Engine, log *zap.Logger) {
	if cfg.Env == config.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Info("starting HTTP server", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("HTTP server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping HTTP server")
			return srv.Shutdown(ctx)
		},
	})
}
