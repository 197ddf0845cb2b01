package db_models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPending PaymentStatus = "pending"
)

// Registration links one account to one event. (AccountID, EventID) and
// PaymentReference are unique.
type Registration struct {
	ID               uuid.UUID     `gorm:"type:uuid;primaryKey"`
	AccountID        uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_registration_account_event"`
	EventID          uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_registration_account_event;index"`
	PaymentStatus    PaymentStatus `gorm:"not null"`
	PaymentReference *string       `gorm:"uniqueIndex"`
	AmountMinor      int64         `gorm:"not null"`
	Attended         bool          `gorm:"not null"`
	RegisteredAt     int64         `gorm:"not null"`
}

func (r *Registration) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.RegisteredAt == 0 {
		r.RegisteredAt = time.Now().Unix()
	}
	return nil
}
