package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alumni/internal/models/db_models"
	"alumni/pkg/utils"
)

// MembershipStats is computed over stored dates, so today and the window
// bounds are passed in the stored date form.
type MembershipStats struct {
	ByType              map[string]int64
	ActiveMemberships   int64
	NewMemberships      int64
	ExpiringMemberships int64
	TotalRevenueMinor   int64
}

type MembershipRepository interface {
	// Insert returns utils.ErrMembershipAlreadyActive when the payment
	// reference already produced a membership.
	Insert(ctx context.Context, membership *db_models.Membership) error
	FindByID(ctx context.Context, id uuid.UUID) (*db_models.Membership, error)
	FindByPaymentReference(ctx context.Context, reference string) (*db_models.Membership, error)
	// FindCurrent returns the currently entitling membership ending last.
	FindCurrent(ctx context.Context, accountID uuid.UUID, today int64) (*db_models.Membership, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, page utils.Page) ([]db_models.Membership, int64, error)
	Stats(ctx context.Context, today, createdSince, expiringBy int64) (*MembershipStats, error)
}

type membershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

func (m *membershipRepository) Insert(ctx context.Context, membership *db_models.Membership) error {
	const op = "repositories.MembershipRepository.Insert"

	if err := conn(ctx, m.db).Create(membership).Error; err != nil {
		if IsUniqueViolation(err) {
			return utils.ErrMembershipAlreadyActive
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (m *membershipRepository) FindByID(ctx context.Context, id uuid.UUID) (*db_models.Membership, error) {
	return m.first(conn(ctx, m.db).Where("id = ?", id))
}

func (m *membershipRepository) FindByPaymentReference(ctx context.Context, reference string) (*db_models.Membership, error) {
	return m.first(conn(ctx, m.db).Where("payment_reference = ?", reference))
}

func (m *membershipRepository) FindCurrent(ctx context.Context, accountID uuid.UUID, today int64) (*db_models.Membership, error) {
	return m.first(conn(ctx, m.db).
		Where("account_id = ? AND is_active = ? AND end_date >= ?", accountID, true, today).
		Order("end_date DESC"))
}

func (m *membershipRepository) first(query *gorm.DB) (*db_models.Membership, error) {
	const op = "repositories.MembershipRepository.First"

	var membership db_models.Membership
	if err := query.First(&membership).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &membership, nil
}

func (m *membershipRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	const op = "repositories.MembershipRepository.Deactivate"

	res := conn(ctx, m.db).Model(&db_models.Membership{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.ErrMembershipNotFound
	}
	return nil
}

func (m *membershipRepository) List(ctx context.Context, page utils.Page) ([]db_models.Membership, int64, error) {
	const op = "repositories.MembershipRepository.List"

	query := conn(ctx, m.db).Model(&db_models.Membership{}).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	var memberships []db_models.Membership
	err := query.
		Order("created_at DESC, id ASC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&memberships).Error
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return memberships, total, nil
}

func (m *membershipRepository) Stats(ctx context.Context, today, createdSince, expiringBy int64) (*MembershipStats, error) {
	const op = "repositories.MembershipRepository.Stats"

	db := conn(ctx, m.db)
	active := func() *gorm.DB {
		return db.Model(&db_models.Membership{}).Where("is_active = ? AND end_date >= ?", true, today)
	}

	stats := &MembershipStats{ByType: map[string]int64{}}

	var byType []struct {
		MembershipType string
		Count          int64
	}
	err := active().
		Select("membership_type, COUNT(*) AS count").
		Group("membership_type").
		Scan(&byType).Error
	if err != nil {
		return nil, fmt.Errorf("%s: by type: %w", op, err)
	}
	for _, row := range byType {
		stats.ByType[row.MembershipType] = row.Count
		stats.ActiveMemberships += row.Count
	}

	err = db.Model(&db_models.Membership{}).
		Where("created_at >= ?", createdSince).
		Count(&stats.NewMemberships).Error
	if err != nil {
		return nil, fmt.Errorf("%s: new: %w", op, err)
	}

	err = active().Where("end_date <= ?", expiringBy).Count(&stats.ExpiringMemberships).Error
	if err != nil {
		return nil, fmt.Errorf("%s: expiring: %w", op, err)
	}

	err = db.Model(&db_models.Membership{}).
		Select("COALESCE(SUM(amount_minor), 0)").
		Scan(&stats.TotalRevenueMinor).Error
	if err != nil {
		return nil, fmt.Errorf("%s: revenue: %w", op, err)
	}

	return stats, nil
}
