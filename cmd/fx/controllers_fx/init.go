package controllers_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"alumni/internal/api/controllers"
	"alumni/internal/infra"
	mem "alumni/pkg/memcache"
)

var Module = fx.Options(
	fx.Provide(controllers.NewAccountController),
	fx.Provide(controllers.NewEventController),
	fx.Provide(controllers.NewRegistrationController),
	fx.Provide(controllers.NewMembershipController),
	fx.Provide(controllers.NewPaymentController),
	fx.Provide(provideHealthController))

func provideHealthController(db *gorm.DB, resetTokens mem.ResetTokenStore) *controllers.HealthController {
	checks := map[string]controllers.Pinger{
		"database": infra.DBPinger{DB: db},
	}
	if redis, ok := resetTokens.(controllers.Pinger); ok {
		checks["redis"] = redis
	}
	return controllers.NewHealthController(checks)
}
