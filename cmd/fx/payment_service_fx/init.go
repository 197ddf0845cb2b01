package payment_service_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"alumni/internal/config"
	"alumni/internal/infra"
	"alumni/internal/repositories"
	"alumni/internal/services"
)

var Module = fx.Provide(
	providePaymentRepo, provideGateway, providePaymentService,
)

func providePaymentRepo(db *gorm.DB) repositories.PaymentRepository {
	return repositories.NewPaymentRepository(db)
}

func provideGateway(cfg *config.Config, log *zap.Logger) services.PaymentGateway {
	if cfg.Stripe.SecretKey == "" {
		log.Warn("STRIPE_SECRET_KEY not set, payment intents will fail")
	}
	return infra.NewStripeGateway(cfg.Stripe)
}

type paymentParams struct {
	fx.In

	Cfg           *config.Config
	Tx            repositories.Transactor
	Accounts      repositories.AccountRepository
	Events        repositories.EventRepository
	Registrations repositories.RegistrationRepository
	Memberships   repositories.MembershipRepository
	Payments      repositories.PaymentRepository
	Entitlements  services.EntitlementService
	Gateway       services.PaymentGateway
	Publisher     services.EventPublisher
	Clock         *services.Clock
	Log           *zap.Logger
}

func providePaymentService(p paymentParams) services.PaymentService {
	return services.NewPaymentService(services.PaymentDeps{
		Tx:            p.Tx,
		Accounts:      p.Accounts,
		Events:        p.Events,
		Registrations: p.Registrations,
		Memberships:   p.Memberships,
		Payments:      p.Payments,
		Entitlements:  p.Entitlements,
		Gateway:       p.Gateway,
		Publisher:     p.Publisher,
	}, p.Cfg.Stripe, p.Cfg.Pricing, p.Clock, p.Log)
}
