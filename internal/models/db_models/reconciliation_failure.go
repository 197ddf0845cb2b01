package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	FailureEventNotFound     = "event_not_found"
	FailureAlreadyRegistered = "already_registered"
	FailureEventFull         = "event_full"
	FailureInvalidMetadata   = "invalid_metadata"
	FailureInvalidMembership = "invalid_membership_type"
)

// ReconciliationFailure keeps a confirmed payment that did not produce a
// registration or membership, for manual follow-up or refund.
type ReconciliationFailure struct {
	BaseModel
	ProviderIntentID string    `gorm:"not null;uniqueIndex:idx_failure_intent_reason"`
	Reason           string    `gorm:"not null;uniqueIndex:idx_failure_intent_reason"`
	IntentType       string    `gorm:"not null"`
	AccountID        uuid.UUID `gorm:"type:uuid"`
	AmountMinor      int64
	Payload          datatypes.JSON
}
