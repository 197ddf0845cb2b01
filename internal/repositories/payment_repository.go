package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alumni/internal/models/db_models"
)

// PaymentRepository keeps the ledger of payment intents created with the
// provider and the confirmed payments that could not be reconciled.
type PaymentRepository interface {
	Insert(ctx context.Context, txn *db_models.Transaction) error
	FindByProviderIntentID(ctx context.Context, intentID string) (*db_models.Transaction, error)
	// MarkPaid flips a pending or failed ledger row to paid. It reports whether
	// a row changed.
	MarkPaid(ctx context.Context, intentID string, paidAt int64) (bool, error)
	MarkFailed(ctx context.Context, intentID string) (bool, error)
	// RecordFailure stores a reconciliation failure once per (intent, reason).
	// It reports whether a new row was written.
	RecordFailure(ctx context.Context, failure *db_models.ReconciliationFailure) (bool, error)
	ListFailures(ctx context.Context, limit int) ([]db_models.ReconciliationFailure, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (p *paymentRepository) Insert(ctx context.Context, txn *db_models.Transaction) error {
	const op = "repositories.PaymentRepository.Insert"

	if err := conn(ctx, p.db).Create(txn).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (p *paymentRepository) FindByProviderIntentID(ctx context.Context, intentID string) (*db_models.Transaction, error) {
	const op = "repositories.PaymentRepository.FindByProviderIntentID"

	var txn db_models.Transaction
	err := conn(ctx, p.db).Where("provider_intent_id = ?", intentID).First(&txn).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &txn, nil
}

func (p *paymentRepository) MarkPaid(ctx context.Context, intentID string, paidAt int64) (bool, error) {
	const op = "repositories.PaymentRepository.MarkPaid"

	res := conn(ctx, p.db).Model(&db_models.Transaction{}).
		Where("provider_intent_id = ? AND status <> ?", intentID, db_models.TxnStatusPaid).
		Updates(map[string]interface{}{
			"status":  db_models.TxnStatusPaid,
			"paid_at": paidAt,
		})
	if res.Error != nil {
		return false, fmt.Errorf("%s: %w", op, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (p *paymentRepository) MarkFailed(ctx context.Context, intentID string) (bool, error) {
	const op = "repositories.PaymentRepository.MarkFailed"

	res := conn(ctx, p.db).Model(&db_models.Transaction{}).
		Where("provider_intent_id = ? AND status = ?", intentID, db_models.TxnStatusPending).
		Update("status", db_models.TxnStatusFailed)
	if res.Error != nil {
		return false, fmt.Errorf("%s: %w", op, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (p *paymentRepository) RecordFailure(ctx context.Context, failure *db_models.ReconciliationFailure) (bool, error) {
	const op = "repositories.PaymentRepository.RecordFailure"

	res := conn(ctx, p.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_intent_id"}, {Name: "reason"}},
			DoNothing: true,
		}).
		Create(failure)
	if res.Error != nil {
		return false, fmt.Errorf("%s: %w", op, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (p *paymentRepository) ListFailures(ctx context.Context, limit int) ([]db_models.ReconciliationFailure, error) {
	const op = "repositories.PaymentRepository.ListFailures"

	var failures []db_models.ReconciliationFailure
	if err := conn(ctx, p.db).Order("created_at DESC").Limit(limit).Find(&failures).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return failures, nil
}
