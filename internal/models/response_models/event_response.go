package response_models

type EventResponse struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	EventDate     string `json:"event_date"`
	Location      string `json:"location"`
	PriceMinor    int64  `json:"price_minor"`
	Capacity      *int   `json:"capacity"`
	ImageURL      string `json:"image_url,omitempty"`
	IsMembersOnly bool   `json:"is_members_only"`
	CreatedAt     string `json:"created_at"`

	// Set only for authenticated callers.
	RegisteredCount *int64 `json:"registered_count,omitempty"`
	IsRegistered    *bool  `json:"is_registered,omitempty"`
}

type RegistrationResponse struct {
	ID               string  `json:"id"`
	AccountID        string  `json:"user_id"`
	EventID          string  `json:"event_id"`
	PaymentStatus    string  `json:"payment_status"`
	PaymentReference *string `json:"payment_intent_id"`
	AmountMinor      int64   `json:"amount_minor"`
	Attended         bool    `json:"attended"`
	RegisteredAt     string  `json:"registered_at"`
}
