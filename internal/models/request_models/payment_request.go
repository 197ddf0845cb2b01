package request_models

// CreatePaymentIntentRequest names exactly one of EventID or
// MembershipType. The amount is priced on the server.
type CreatePaymentIntentRequest struct {
	EventID        string `json:"event_id" binding:"omitempty,uuid"`
	MembershipType string `json:"membership_type"`
}
