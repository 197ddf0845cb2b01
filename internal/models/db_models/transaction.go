package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TransactionStatus string

const (
	TxnStatusPending TransactionStatus = "pending"
	TxnStatusPaid    TransactionStatus = "paid"
	TxnStatusFailed  TransactionStatus = "failed"
)

type IntentType string

const (
	IntentTypeEvent      IntentType = "event"
	IntentTypeMembership IntentType = "membership"
)

// Transaction records a payment intent created with the provider, so a
// webhook can be matched back to what was sold.
type Transaction struct {
	BaseModel
	AccountID      uuid.UUID         `gorm:"type:uuid;not null;index"`
	IntentType     IntentType        `gorm:"not null"`
	EventID        *uuid.UUID        `gorm:"type:uuid;index"`
	MembershipType string            `gorm:"size:16"`
	AmountMinor    int64             `gorm:"not null"`
	Currency       string            `gorm:"size:3;not null"`
	Status         TransactionStatus `gorm:"not null;index"`

	Provider         string `gorm:"not null"`
	ProviderIntentID string `gorm:"uniqueIndex;not null"`
	PaidAt           *int64

	Metadata datatypes.JSON
}

func (Transaction) TableName() string {
	return "payments"
}
