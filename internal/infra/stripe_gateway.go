package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"

	"alumni/internal/config"
	"alumni/internal/services"
	"alumni/pkg/utils"
)

const (
	eventPaymentSucceeded = "payment_intent.succeeded"
	eventPaymentFailed    = "payment_intent.payment_failed"
)

// StripeGateway implements services.PaymentGateway on top of the Stripe API.
type StripeGateway struct {
	client        *client.API
	webhookSecret string
}

func NewStripeGateway(cfg config.StripeConfig) *StripeGateway {
	sc := &client.API{}
	sc.Init(cfg.SecretKey, nil)

	return &StripeGateway{client: sc, webhookSecret: cfg.WebhookSecret}
}

func (sg *StripeGateway) Provider() string {
	return "stripe"
}

func (sg *StripeGateway) CreateIntent(ctx context.Context, req services.IntentRequest) (*services.Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountMinor),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	// Repeated attempts with the same key return the intent Stripe already
	// created instead of a second one.
	if req.IdempotencyKey != "" {
		params.IdempotencyKey = stripe.String(req.IdempotencyKey)
	}
	if len(req.Metadata) > 0 {
		params.Metadata = make(map[string]string, len(req.Metadata))
		for k, v := range req.Metadata {
			params.Metadata[k] = v
		}
	}
	params.Context = ctx

	pi, err := sg.client.PaymentIntents.New(params)
	if err != nil {
		return nil, mapStripeError(err)
	}

	return &services.Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes payment
// intent events. Other event types return (nil, nil).
func (sg *StripeGateway) ParseWebhook(payload []byte, signature string) (*services.PaymentNotification, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, sg.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrInvalidWebhook, err)
	}

	var status services.NotificationStatus
	switch string(event.Type) {
	case eventPaymentSucceeded:
		status = services.NotificationSucceeded
	case eventPaymentFailed:
		status = services.NotificationFailed
	default:
		return nil, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrInvalidWebhook, err)
	}

	return &services.PaymentNotification{
		Provider:    sg.Provider(),
		IntentID:    pi.ID,
		Status:      status,
		AmountMinor: pi.Amount,
		Currency:    string(pi.Currency),
		Metadata:    pi.Metadata,
		Raw:         payload,
	}, nil
}

// mapStripeError keeps stripe-go types out of the service layer.
func mapStripeError(err error) error {
	if isRetryableGatewayError(err) {
		return fmt.Errorf("%w: %v", services.ErrGatewayRetryable, err)
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch {
		case stripeErr.Type == stripe.ErrorTypeCard,
			stripeErr.Code == stripe.ErrorCodeCardDeclined,
			stripeErr.Code == stripe.ErrorCodeExpiredCard,
			stripeErr.Code == stripe.ErrorCodeIncorrectCVC:
			return fmt.Errorf("%w: %s", utils.ErrPaymentDeclined, stripeErr.Msg)
		}
	}
	return fmt.Errorf("stripe: %w", err)
}

func isRetryableGatewayError(err error) bool {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode >= http.StatusInternalServerError {
			return true
		}
		return stripeErr.Code == stripe.ErrorCodeRateLimit || stripeErr.Code == stripe.ErrorCodeLockTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}
