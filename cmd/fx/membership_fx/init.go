package membership_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"alumni/internal/repositories"
	"alumni/internal/services"
)

var Module = fx.Provide(
	provideMembershipRepo, provideMembershipService)

func provideMembershipRepo(db *gorm.DB) repositories.MembershipRepository {
	return repositories.NewMembershipRepository(db)
}

func provideMembershipService(
	tx repositories.Transactor,
	accounts repositories.AccountRepository,
	memberships repositories.MembershipRepository,
	payments repositories.PaymentRepository,
	publisher services.EventPublisher,
	clock *services.Clock,
	log *zap.Logger,
) services.MembershipService {
	return services.NewMembershipService(tx, accounts, memberships, payments, publisher, clock, log)
}
