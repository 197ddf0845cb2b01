package request_models

type CreateRegistrationRequest struct {
	EventID         string `json:"event_id" binding:"required,uuid"`
	PaymentIntentID string `json:"payment_intent_id" binding:"max=255"`
}

type UpdateAttendanceRequest struct {
	Attended *bool `json:"attended" form:"attended" binding:"required"`
}

type CreateMembershipRequest struct {
	MembershipType string `json:"membership_type" binding:"required"`
	PaymentID      string `json:"payment_id" binding:"max=255"`
	AmountMinor    int64  `json:"amount_minor" binding:"min=0"`
}
