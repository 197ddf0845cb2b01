package services

import (
	"context"
	"errors"
)

// Domain event types published after a unit of work commits.
const (
	EventRegistrationCreated    = "registration.created"
	EventRegistrationCancelled  = "registration.cancelled"
	EventRegistrationPaid       = "registration.paid"
	EventMembershipActivated    = "membership.activated"
	EventMembershipCancelled    = "membership.cancelled"
	EventReconciliationFailed   = "reconciliation.failed"
	EventPasswordResetRequested = "account.password_reset_requested"
)

type DomainEvent struct {
	Type       string      `json:"type"`
	Key        string      `json:"-"`
	OccurredAt int64       `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

// EventPublisher delivers domain events to downstream consumers such as the
// mailer. Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
}

// ErrGatewayRetryable marks a gateway failure worth another attempt.
var ErrGatewayRetryable = errors.New("payment gateway temporarily unavailable")

type IntentRequest struct {
	AmountMinor    int64
	Currency       string
	IdempotencyKey string
	Metadata       map[string]string
}

type Intent struct {
	ID           string
	ClientSecret string
}

type NotificationStatus string

const (
	NotificationSucceeded NotificationStatus = "succeeded"
	NotificationFailed    NotificationStatus = "failed"
)

// PaymentNotification is a verified webhook delivery decoded by the gateway.
type PaymentNotification struct {
	Provider    string
	IntentID    string
	Status      NotificationStatus
	AmountMinor int64
	Currency    string
	Metadata    map[string]string
	Raw         []byte
}

// PaymentGateway is the trust boundary with the payment provider. Signature
// verification happens behind ParseWebhook.
type PaymentGateway interface {
	Provider() string
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	// ParseWebhook returns (nil, nil) for deliveries that carry no payment
	// outcome.
	ParseWebhook(payload []byte, signature string) (*PaymentNotification, error)
}

// Metadata keys written on every intent.
const (
	MetaAccountID      = "user_id"
	MetaType           = "type"
	MetaEventID        = "event_id"
	MetaMembershipType = "membership_type"
)
