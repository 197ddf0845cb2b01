package db_models

import "time"

type Event struct {
	BaseModel
	Title         string `gorm:"not null"`
	Description   string `gorm:"type:text;not null"`
	StartsAt      int64  `gorm:"not null;index"`
	Location      string `gorm:"not null"`
	PriceMinor    int64  `gorm:"not null"`
	Capacity      *int
	ImageURL      string
	IsMembersOnly bool `gorm:"not null;index"`

	Registrations []Registration `gorm:"constraint:OnDelete:CASCADE"`
}

// HasStarted reports whether the scheduled time is at or before now.
func (e *Event) HasStarted(now time.Time) bool {
	return e.StartsAt <= now.Unix()
}

// IsFull reports whether count registrations exhaust the capacity. Events
// without a capacity never fill up.
func (e *Event) IsFull(count int64) bool {
	return e.Capacity != nil && count >= int64(*e.Capacity)
}
