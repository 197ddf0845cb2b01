package db_models

import "github.com/google/uuid"

type Membership struct {
	BaseModel
	AccountID        uuid.UUID `gorm:"type:uuid;not null;index"`
	MembershipType   string    `gorm:"not null;index"`
	StartDate        int64     `gorm:"not null"`
	EndDate          int64     `gorm:"not null;index"`
	PaymentReference *string   `gorm:"uniqueIndex"`
	AmountMinor      int64     `gorm:"not null"`
	IsActive         bool      `gorm:"not null;index"`
}

// IsCurrentlyEntitling reports is_active && end_date >= today, with today in
// the stored date form.
func (m *Membership) IsCurrentlyEntitling(today int64) bool {
	return m.IsActive && m.EndDate >= today
}
