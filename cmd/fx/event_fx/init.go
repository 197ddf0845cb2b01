package event_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"alumni/internal/repositories"
	"alumni/internal/services"
)

var Module = fx.Provide(
	provideEventRepo, provideRegistrationRepo, provideEventService, provideRegistrationService)

func provideEventRepo(db *gorm.DB) repositories.EventRepository {
	return repositories.NewEventRepository(db)
}

func provideRegistrationRepo(db *gorm.DB) repositories.RegistrationRepository {
	return repositories.NewRegistrationRepository(db)
}

func provideEventService(
	tx repositories.Transactor,
	events repositories.EventRepository,
	registrations repositories.RegistrationRepository,
	entitlements services.EntitlementService,
	clock *services.Clock,
	log *zap.Logger,
) services.EventService {
	return services.NewEventService(tx, events, registrations, entitlements, clock, log)
}

func provideRegistrationService(
	tx repositories.Transactor,
	events repositories.EventRepository,
	registrations repositories.RegistrationRepository,
	payments repositories.PaymentRepository,
	entitlements services.EntitlementService,
	publisher services.EventPublisher,
	clock *services.Clock,
	log *zap.Logger,
) services.RegistrationService {
	return services.NewRegistrationService(tx, events, registrations, payments, entitlements, publisher, clock, log)
}
