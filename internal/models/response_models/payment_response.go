package response_models

type PaymentIntentResponse struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
	AmountMinor     int64  `json:"amount_minor"`
	Currency        string `json:"currency"`
}

type PaymentConfigResponse struct {
	PublishableKey string `json:"publishableKey"`
	Currency       string `json:"currency"`
}

// WebhookResult tells the provider the delivery was handled.
type WebhookResult struct {
	Status  string `json:"status"`
	Outcome string `json:"outcome,omitempty"`
}

type ReconciliationFailureResponse struct {
	ID               string `json:"id"`
	ProviderIntentID string `json:"payment_intent_id"`
	Reason           string `json:"reason"`
	IntentType       string `json:"intent_type"`
	AccountID        string `json:"user_id"`
	AmountMinor      int64  `json:"amount_minor"`
	CreatedAt        string `json:"created_at"`
}
