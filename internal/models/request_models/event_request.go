package request_models

import "time"

type CreateEventRequest struct {
	Title         string    `json:"title" binding:"required,max=200"`
	Description   string    `json:"description" binding:"required"`
	EventDate     time.Time `json:"event_date" binding:"required"`
	Location      string    `json:"location" binding:"required,max=200"`
	PriceMinor    int64     `json:"price_minor" binding:"min=0"`
	Capacity      *int      `json:"capacity" binding:"omitempty,min=1"`
	ImageURL      string    `json:"image_url" binding:"max=500"`
	IsMembersOnly bool      `json:"is_members_only"`
}

// UpdateEventRequest is a partial update; nil fields are left unchanged.
type UpdateEventRequest struct {
	Title         *string    `json:"title" binding:"omitempty,max=200"`
	Description   *string    `json:"description"`
	EventDate     *time.Time `json:"event_date"`
	Location      *string    `json:"location" binding:"omitempty,max=200"`
	PriceMinor    *int64     `json:"price_minor" binding:"omitempty,min=0"`
	Capacity      *int       `json:"capacity" binding:"omitempty,min=1"`
	ImageURL      *string    `json:"image_url" binding:"omitempty,max=500"`
	IsMembersOnly *bool      `json:"is_members_only"`
}
