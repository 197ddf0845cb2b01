package account_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"alumni/internal/config"
	"alumni/internal/repositories"
	"alumni/internal/services"
	mem "alumni/pkg/memcache"
	"alumni/pkg/middleware"
	"alumni/pkg/utils"
)

var Module = fx.Provide(
	provideAccountRepo,
	provideTokenManager,
	provideTokenValidator,
	provideEntitlementService,
	providePrincipalResolver,
	provideAccountService,
)

func provideAccountRepo(db *gorm.DB) repositories.AccountRepository {
	return repositories.NewAccountRepository(db)
}

func provideTokenManager(cfg *config.Config) *utils.TokenManager {
	return utils.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
}

func provideTokenValidator(tokens *utils.TokenManager) middleware.TokenValidator {
	return tokens
}

func provideEntitlementService(
	accounts repositories.AccountRepository,
	memberships repositories.MembershipRepository,
	events repositories.EventRepository,
	clock *services.Clock,
) services.EntitlementService {
	return services.NewEntitlementService(accounts, memberships, events, clock)
}

func providePrincipalResolver(entitlements services.EntitlementService) middleware.PrincipalResolver {
	return entitlements
}

func provideAccountService(
	cfg *config.Config,
	accountRepo repositories.AccountRepository,
	entitlements services.EntitlementService,
	tokens *utils.TokenManager,
	resetTokens mem.ResetTokenStore,
	publisher services.EventPublisher,
	clock *services.Clock,
	log *zap.Logger,
) services.AccountServiceInterface {
	settings := services.AccountSettings{
		ResetTokenTTL: cfg.ResetTokenTTL,
		FrontendURL:   cfg.FrontendURL,
	}
	return services.NewAccountService(accountRepo, entitlements, tokens, resetTokens, publisher, settings, clock, log)
}
