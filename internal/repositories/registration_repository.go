package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alumni/internal/models/db_models"
	"alumni/pkg/utils"
)

type RegistrationRepository interface {
	// Insert returns utils.ErrAlreadyRegistered when the (account, event) pair
	// or the payment reference is already taken.
	Insert(ctx context.Context, registration *db_models.Registration) error
	FindByID(ctx context.Context, id uuid.UUID) (*db_models.Registration, error)
	FindByAccountAndEvent(ctx context.Context, accountID, eventID uuid.UUID) (*db_models.Registration, error)
	FindByPaymentReference(ctx context.Context, reference string) (*db_models.Registration, error)
	CountByEvent(ctx context.Context, eventID uuid.UUID) (int64, error)
	CountByEvents(ctx context.Context, eventIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	RegisteredEventIDs(ctx context.Context, accountID uuid.UUID, eventIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]db_models.Registration, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]db_models.Registration, error)
	SetAttended(ctx context.Context, id uuid.UUID, attended bool) error
	// Settle turns a pending registration into a paid one. It returns
	// utils.ErrRegistrationNotFound when no pending row has that id.
	Settle(ctx context.Context, id uuid.UUID, paymentReference string, amountMinor int64) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type registrationRepository struct {
	db *gorm.DB
}

func NewRegistrationRepository(db *gorm.DB) RegistrationRepository {
	return &registrationRepository{db: db}
}

func (r *registrationRepository) Insert(ctx context.Context, registration *db_models.Registration) error {
	const op = "repositories.RegistrationRepository.Insert"

	if err := conn(ctx, r.db).Create(registration).Error; err != nil {
		if IsUniqueViolation(err) {
			return utils.ErrAlreadyRegistered
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *registrationRepository) FindByID(ctx context.Context, id uuid.UUID) (*db_models.Registration, error) {
	return r.first(conn(ctx, r.db).Where("id = ?", id))
}

func (r *registrationRepository) FindByAccountAndEvent(ctx context.Context, accountID, eventID uuid.UUID) (*db_models.Registration, error) {
	return r.first(conn(ctx, r.db).Where("account_id = ? AND event_id = ?", accountID, eventID))
}

func (r *registrationRepository) FindByPaymentReference(ctx context.Context, reference string) (*db_models.Registration, error) {
	return r.first(conn(ctx, r.db).Where("payment_reference = ?", reference))
}

func (r *registrationRepository) first(query *gorm.DB) (*db_models.Registration, error) {
	const op = "repositories.RegistrationRepository.First"

	var registration db_models.Registration
	if err := query.First(&registration).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &registration, nil
}

func (r *registrationRepository) CountByEvent(ctx context.Context, eventID uuid.UUID) (int64, error) {
	const op = "repositories.RegistrationRepository.CountByEvent"

	var count int64
	err := conn(ctx, r.db).Model(&db_models.Registration{}).Where("event_id = ?", eventID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

func (r *registrationRepository) CountByEvents(ctx context.Context, eventIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	const op = "repositories.RegistrationRepository.CountByEvents"

	counts := make(map[uuid.UUID]int64, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		EventID uuid.UUID
		Count   int64
	}
	err := conn(ctx, r.db).Model(&db_models.Registration{}).
		Select("event_id, COUNT(*) AS count").
		Where("event_id IN ?", eventIDs).
		Group("event_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, row := range rows {
		counts[row.EventID] = row.Count
	}
	return counts, nil
}

func (r *registrationRepository) RegisteredEventIDs(ctx context.Context, accountID uuid.UUID, eventIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	const op = "repositories.RegistrationRepository.RegisteredEventIDs"

	registered := make(map[uuid.UUID]bool, len(eventIDs))
	if len(eventIDs) == 0 {
		return registered, nil
	}

	var ids []uuid.UUID
	err := conn(ctx, r.db).Model(&db_models.Registration{}).
		Where("account_id = ? AND event_id IN ?", accountID, eventIDs).
		Pluck("event_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, id := range ids {
		registered[id] = true
	}
	return registered, nil
}

func (r *registrationRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]db_models.Registration, error) {
	return r.list(conn(ctx, r.db).Where("event_id = ?", eventID))
}

func (r *registrationRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]db_models.Registration, error) {
	return r.list(conn(ctx, r.db).Where("account_id = ?", accountID))
}

func (r *registrationRepository) list(query *gorm.DB) ([]db_models.Registration, error) {
	const op = "repositories.RegistrationRepository.List"

	var registrations []db_models.Registration
	if err := query.Order("registered_at ASC, id ASC").Find(&registrations).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return registrations, nil
}

func (r *registrationRepository) SetAttended(ctx context.Context, id uuid.UUID, attended bool) error {
	const op = "repositories.RegistrationRepository.SetAttended"

	res := conn(ctx, r.db).Model(&db_models.Registration{}).Where("id = ?", id).Update("attended", attended)
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.ErrRegistrationNotFound
	}
	return nil
}

func (r *registrationRepository) Settle(ctx context.Context, id uuid.UUID, paymentReference string, amountMinor int64) error {
	const op = "repositories.RegistrationRepository.Settle"

	res := conn(ctx, r.db).Model(&db_models.Registration{}).
		Where("id = ? AND payment_status = ?", id, db_models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"payment_status":    db_models.PaymentStatusPaid,
			"payment_reference": paymentReference,
			"amount_minor":      amountMinor,
		})
	if res.Error != nil {
		if IsUniqueViolation(res.Error) {
			return utils.ErrAlreadyRegistered
		}
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.ErrRegistrationNotFound
	}
	return nil
}

func (r *registrationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "repositories.RegistrationRepository.Delete"

	res := conn(ctx, r.db).Where("id = ?", id).Delete(&db_models.Registration{})
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.ErrRegistrationNotFound
	}
	return nil
}
