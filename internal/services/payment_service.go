package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"alumni/internal/access"
	"alumni/internal/config"
	"alumni/internal/models/db_models"
	"alumni/internal/models/request_models"
	resp "alumni/internal/models/response_models"
	"alumni/internal/repositories"
	"alumni/pkg/utils"
)

type PaymentService interface {
	CreateIntent(ctx context.Context, p access.Principal, req request_models.CreatePaymentIntentRequest) (*resp.PaymentIntentResponse, error)
	// HandleWebhook verifies and applies one provider delivery. A nil error
	// means the delivery should be acknowledged.
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*resp.WebhookResult, error)
	Reconcile(ctx context.Context, n PaymentNotification) (*ReconcileOutcome, error)
	Config() resp.PaymentConfigResponse
	ListFailures(ctx context.Context, p access.Principal, limit int) ([]resp.ReconciliationFailureResponse, error)
}

// ReconcileOutcome names the record a confirmed payment produced. Created is
// false when an earlier delivery already produced it.
type ReconcileOutcome struct {
	IntentType db_models.IntentType
	RecordID   uuid.UUID
	// Created is false when the notification changed nothing.
	Created bool
}

type paymentService struct {
	tx            repositories.Transactor
	accounts      repositories.AccountRepository
	events        repositories.EventRepository
	registrations repositories.RegistrationRepository
	memberships   repositories.MembershipRepository
	payments      repositories.PaymentRepository
	entitlements  EntitlementService
	gateway       PaymentGateway
	publisher     EventPublisher
	stripe        config.StripeConfig
	pricing       config.MembershipPricing
	clock         *Clock
	log           *zap.Logger

	// backoff is the pause before retry attempt n (n >= 1).
	backoff func(n int) time.Duration
}

type PaymentDeps struct {
	Tx            repositories.Transactor
	Accounts      repositories.AccountRepository
	Events        repositories.EventRepository
	Registrations repositories.RegistrationRepository
	Memberships   repositories.MembershipRepository
	Payments      repositories.PaymentRepository
	Entitlements  EntitlementService
	Gateway       PaymentGateway
	Publisher     EventPublisher
}

func NewPaymentService(deps PaymentDeps, stripe config.StripeConfig, pricing config.MembershipPricing, clock *Clock, log *zap.Logger) PaymentService {
	if stripe.MaxAttempts < 1 {
		stripe.MaxAttempts = 1
	}
	return &paymentService{
		tx:            deps.Tx,
		accounts:      deps.Accounts,
		events:        deps.Events,
		registrations: deps.Registrations,
		memberships:   deps.Memberships,
		payments:      deps.Payments,
		entitlements:  deps.Entitlements,
		gateway:       deps.Gateway,
		publisher:     deps.Publisher,
		stripe:        stripe,
		pricing:       pricing,
		clock:         clock,
		log:           log,
		backoff: func(n int) time.Duration {
			return time.Duration(n) * 250 * time.Millisecond
		},
	}
}

type intentTarget struct {
	intentType     db_models.IntentType
	eventID        *uuid.UUID
	membershipType access.MembershipType
	amountMinor    int64
}

func (s *paymentService) CreateIntent(ctx context.Context, p access.Principal, req request_models.CreatePaymentIntentRequest) (*resp.PaymentIntentResponse, error) {
	const op = "services.PaymentService.CreateIntent"
	log := s.log.With(zap.String("op", op), zap.String("account_id", p.AccountID.String()))

	if err := access.RequireAuthenticated(p); err != nil {
		return nil, err
	}

	target, err := s.resolveTarget(ctx, p, req)
	if err != nil {
		if _, sentinel := utils.Classify(err); sentinel == nil {
			log.Error("failed to price payment intent", zap.Error(err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, err
	}

	metadata := map[string]string{
		MetaAccountID: p.AccountID.String(),
		MetaType:      string(target.intentType),
	}
	if target.eventID != nil {
		metadata[MetaEventID] = target.eventID.String()
	} else {
		metadata[MetaMembershipType] = string(target.membershipType)
	}

	intent, err := s.createWithRetry(ctx, IntentRequest{
		AmountMinor:    target.amountMinor,
		Currency:       s.stripe.Currency,
		IdempotencyKey: uuid.NewString(),
		Metadata:       metadata,
	})
	if err != nil {
		log.Warn("payment intent not created", zap.Error(err))
		return nil, err
	}

	metaJSON, _ := json.Marshal(metadata)
	txn := &db_models.Transaction{
		AccountID:        p.AccountID,
		IntentType:       target.intentType,
		EventID:          target.eventID,
		MembershipType:   string(target.membershipType),
		AmountMinor:      target.amountMinor,
		Currency:         s.stripe.Currency,
		Status:           db_models.TxnStatusPending,
		Provider:         s.gateway.Provider(),
		ProviderIntentID: intent.ID,
		Metadata:         datatypes.JSON(metaJSON),
	}
	// Reconciliation works from the intent metadata alone. Without the ledger
	// row the direct create endpoints reject this intent id.
	if err := s.payments.Insert(ctx, txn); err != nil {
		log.Error("failed to record payment intent", zap.String("intent_id", intent.ID), zap.Error(err))
	}

	log.Info("payment intent created",
		zap.String("intent_id", intent.ID),
		zap.String("type", string(target.intentType)),
		zap.Int64("amount_minor", target.amountMinor))

	return &resp.PaymentIntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		AmountMinor:     target.amountMinor,
		Currency:        s.stripe.Currency,
	}, nil
}

// resolveTarget applies the same checks as direct creation and prices the
// purchase on the server.
func (s *paymentService) resolveTarget(ctx context.Context, p access.Principal, req request_models.CreatePaymentIntentRequest) (*intentTarget, error) {
	hasEvent, hasMembership := req.EventID != "", req.MembershipType != ""
	switch {
	case hasEvent && hasMembership:
		return nil, utils.ErrAmbiguousPaymentTarget
	case !hasEvent && !hasMembership:
		return nil, utils.ErrMissingPaymentTarget
	}

	if hasMembership {
		t, err := access.ParseMembershipType(req.MembershipType)
		if err != nil {
			return nil, err
		}
		hasActive, err := s.entitlements.HasActiveMembership(ctx, p)
		if err != nil {
			return nil, err
		}
		if err := access.PurchaseMembership(p, hasActive); err != nil {
			return nil, err
		}
		amount := s.membershipPrice(t)
		if amount <= 0 {
			return nil, utils.ErrNotBillable
		}
		return &intentTarget{intentType: db_models.IntentTypeMembership, membershipType: t, amountMinor: amount}, nil
	}

	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return nil, utils.ErrEventNotFound
	}
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, utils.ErrEventNotFound
	}

	hasActive := false
	if event.IsMembersOnly && !p.IsAdmin() {
		if hasActive, err = s.entitlements.HasActiveMembership(ctx, p); err != nil {
			return nil, err
		}
	}
	if err := access.RegisterForEvent(p, event, hasActive); err != nil {
		return nil, err
	}

	existing, err := s.registrations.FindByAccountAndEvent(ctx, p.AccountID, eventID)
	if err != nil {
		return nil, err
	}
	// A pending registration already holds a seat; paying for it needs none.
	if existing == nil || existing.PaymentStatus != db_models.PaymentStatusPending {
		count, err := s.registrations.CountByEvent(ctx, eventID)
		if err != nil {
			return nil, err
		}
		if err := access.CheckSeat(event, existing != nil, count); err != nil {
			return nil, err
		}
	}
	if event.PriceMinor <= 0 {
		return nil, utils.ErrNotBillable
	}

	return &intentTarget{intentType: db_models.IntentTypeEvent, eventID: &eventID, amountMinor: event.PriceMinor}, nil
}

func (s *paymentService) membershipPrice(t access.MembershipType) int64 {
	switch t {
	case access.MembershipMonthly:
		return s.pricing.Monthly
	case access.MembershipAnnual:
		return s.pricing.Annual
	case access.MembershipLifetime:
		return s.pricing.Lifetime
	}
	return 0
}

// createWithRetry retries retryable gateway failures. Every attempt carries
// the same idempotency key, so a retry after a lost response cannot create a
// second intent.
func (s *paymentService) createWithRetry(ctx context.Context, req IntentRequest) (*Intent, error) {
	var lastErr error
	for attempt := 1; attempt <= s.stripe.MaxAttempts; attempt++ {
		intent, err := s.gateway.CreateIntent(ctx, req)
		if err == nil {
			return intent, nil
		}
		if !errors.Is(err, ErrGatewayRetryable) {
			return nil, err
		}
		lastErr = err

		if attempt == s.stripe.MaxAttempts {
			break
		}
		s.log.Warn("retrying payment intent", zap.Int("attempt", attempt), zap.Error(err))

		timer := time.NewTimer(s.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("%w: %v", utils.ErrGatewayUnavailable, lastErr)
}

func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*resp.WebhookResult, error) {
	const op = "services.PaymentService.HandleWebhook"
	log := s.log.With(zap.String("op", op))

	n, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		log.Warn("rejected webhook delivery", zap.Error(err))
		return nil, err
	}
	if n == nil {
		return &resp.WebhookResult{Status: "success", Outcome: "ignored"}, nil
	}
	log = log.With(zap.String("intent_id", n.IntentID))

	if n.Status == NotificationFailed {
		if _, err := s.payments.MarkFailed(ctx, n.IntentID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		log.Info("payment failed")
		return &resp.WebhookResult{Status: "success", Outcome: "payment_failed"}, nil
	}

	outcome, err := s.Reconcile(ctx, *n)
	if err != nil {
		if errors.Is(err, utils.ErrReconciliationDropped) {
			// Acknowledge: a redelivery would fail the same way.
			return &resp.WebhookResult{Status: "success", Outcome: "dropped"}, nil
		}
		return nil, err
	}
	if !outcome.Created {
		return &resp.WebhookResult{Status: "success", Outcome: "duplicate"}, nil
	}
	return &resp.WebhookResult{Status: "success", Outcome: "reconciled"}, nil
}

// reconcileFailure aborts a reconciliation transaction for a payment that
// cannot be materialized.
type reconcileFailure struct {
	reason string
}

func (f *reconcileFailure) Error() string {
	return "reconciliation failed: " + f.reason
}

// Reconcile turns a confirmed payment into exactly one registration or
// membership, keyed by the intent id. Replays return the existing record.
func (s *paymentService) Reconcile(ctx context.Context, n PaymentNotification) (*ReconcileOutcome, error) {
	const op = "services.PaymentService.Reconcile"
	log := s.log.With(zap.String("op", op), zap.String("intent_id", n.IntentID))

	intentType := db_models.IntentType(n.Metadata[MetaType])
	accountID, err := uuid.Parse(n.Metadata[MetaAccountID])
	if err != nil || n.IntentID == "" {
		return nil, s.dropPayment(ctx, n, intentType, uuid.Nil, db_models.FailureInvalidMetadata, log)
	}

	var outcome *ReconcileOutcome
	switch intentType {
	case db_models.IntentTypeEvent:
		outcome, err = s.reconcileRegistration(ctx, n, accountID, log)
	case db_models.IntentTypeMembership:
		outcome, err = s.reconcileMembership(ctx, n, accountID, log)
	default:
		err = &reconcileFailure{reason: db_models.FailureInvalidMetadata}
	}

	var failure *reconcileFailure
	if errors.As(err, &failure) {
		return nil, s.dropPayment(ctx, n, intentType, accountID, failure.reason, log)
	}
	if err != nil {
		log.Error("reconciliation failed", zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return outcome, nil
}

func (s *paymentService) reconcileRegistration(ctx context.Context, n PaymentNotification, accountID uuid.UUID, log *zap.Logger) (*ReconcileOutcome, error) {
	eventID, err := uuid.Parse(n.Metadata[MetaEventID])
	if err != nil {
		return nil, &reconcileFailure{reason: db_models.FailureInvalidMetadata}
	}

	var registration *db_models.Registration
	created, settled := false, false
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := s.registrations.FindByPaymentReference(ctx, n.IntentID)
		if err != nil {
			return err
		}
		if existing != nil {
			registration = existing
			_, err = s.payments.MarkPaid(ctx, n.IntentID, s.clock.Now().Unix())
			return err
		}

		event, err := s.events.LockByID(ctx, eventID)
		if err != nil {
			return err
		}
		if event == nil {
			return &reconcileFailure{reason: db_models.FailureEventNotFound}
		}

		if n.AmountMinor != event.PriceMinor {
			log.Warn("paid amount differs from current event price",
				zap.Int64("paid_minor", n.AmountMinor),
				zap.Int64("price_minor", event.PriceMinor))
		}

		// Read under the event lock: a direct registration with this intent
		// may have committed while this transaction waited for it.
		duplicate, err := s.registrations.FindByAccountAndEvent(ctx, accountID, eventID)
		if err != nil {
			return err
		}
		if duplicate != nil {
			switch {
			case duplicate.PaymentReference != nil && *duplicate.PaymentReference == n.IntentID:
				registration = duplicate
				_, err = s.payments.MarkPaid(ctx, n.IntentID, s.clock.Now().Unix())
				return err
			case duplicate.PaymentReference == nil && duplicate.PaymentStatus == db_models.PaymentStatusPending:
				if err := s.registrations.Settle(ctx, duplicate.ID, n.IntentID, event.PriceMinor); err != nil {
					return err
				}
				duplicate.PaymentStatus = db_models.PaymentStatusPaid
				duplicate.PaymentReference = optionalString(n.IntentID)
				duplicate.AmountMinor = event.PriceMinor
				registration, settled = duplicate, true
				_, err = s.payments.MarkPaid(ctx, n.IntentID, s.clock.Now().Unix())
				return err
			default:
				return &reconcileFailure{reason: db_models.FailureAlreadyRegistered}
			}
		}

		count, err := s.registrations.CountByEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if errors.Is(access.CheckSeat(event, false, count), utils.ErrEventFull) {
			return &reconcileFailure{reason: db_models.FailureEventFull}
		}

		registration = &db_models.Registration{
			AccountID:        accountID,
			EventID:          eventID,
			PaymentStatus:    db_models.PaymentStatusPaid,
			PaymentReference: optionalString(n.IntentID),
			AmountMinor:      event.PriceMinor,
			RegisteredAt:     s.clock.Now().Unix(),
		}
		if err := s.registrations.Insert(ctx, registration); err != nil {
			return err
		}
		created = true

		_, err = s.payments.MarkPaid(ctx, n.IntentID, s.clock.Now().Unix())
		return err
	})

	if errors.Is(err, utils.ErrAlreadyRegistered) {
		// Lost a race on one of the unique keys. If it was the intent id, the
		// winner already did the work.
		existing, findErr := s.registrations.FindByPaymentReference(ctx, n.IntentID)
		if findErr != nil {
			return nil, findErr
		}
		if existing == nil {
			return nil, &reconcileFailure{reason: db_models.FailureAlreadyRegistered}
		}
		registration, created, err = existing, false, nil
	}
	if err != nil {
		return nil, err
	}

	switch {
	case created:
		log.Info("registration reconciled", zap.String("registration_id", registration.ID.String()))
		publish(ctx, s.publisher, s.log, s.clock, EventRegistrationCreated, eventID.String(), registrationEvent(registration))
	case settled:
		log.Info("pending registration paid", zap.String("registration_id", registration.ID.String()))
		publish(ctx, s.publisher, s.log, s.clock, EventRegistrationPaid, eventID.String(), registrationEvent(registration))
	default:
		log.Info("duplicate payment notification absorbed")
	}
	return &ReconcileOutcome{IntentType: db_models.IntentTypeEvent, RecordID: registration.ID, Created: created || settled}, nil
}

func (s *paymentService) reconcileMembership(ctx context.Context, n PaymentNotification, accountID uuid.UUID, log *zap.Logger) (*ReconcileOutcome, error) {
	membershipType, err := access.ParseMembershipType(n.Metadata[MetaMembershipType])
	if err != nil {
		return nil, &reconcileFailure{reason: db_models.FailureInvalidMembership}
	}

	var membership *db_models.Membership
	created := false
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := s.memberships.FindByPaymentReference(ctx, n.IntentID)
		if err != nil {
			return err
		}
		if existing != nil {
			membership = existing
			_, err = s.payments.MarkPaid(ctx, n.IntentID, s.clock.Now().Unix())
			return err
		}

		account, err := s.accounts.LockByID(ctx, accountID)
		if err != nil {
			return err
		}
		if account == nil {
			return &reconcileFailure{reason: db_models.FailureInvalidMetadata}
		}

		today := s.clock.Today()
		current, err := s.memberships.FindCurrent(ctx, accountID, today)
		if err != nil {
			return err
		}
		if current != nil {
			log.Warn("paid membership overlaps an active one",
				zap.String("active_membership_id", current.ID.String()))
		}

		membership, err = newMembership(accountID, membershipType, utils.FromDateUnix(today), n.AmountMinor, n.IntentID)
		if err != nil {
			return err
		}
		if err := s.memberships.Insert(ctx, membership); err != nil {
			return err
		}
		created = true

		_, err = s.payments.MarkPaid(ctx, n.IntentID, s.clock.Now().Unix())
		return err
	})

	if errors.Is(err, utils.ErrMembershipAlreadyActive) {
		existing, findErr := s.memberships.FindByPaymentReference(ctx, n.IntentID)
		if findErr != nil {
			return nil, findErr
		}
		if existing == nil {
			return nil, err
		}
		membership, created, err = existing, false, nil
	}
	if err != nil {
		return nil, err
	}

	if created {
		log.Info("membership reconciled", zap.String("membership_id", membership.ID.String()))
		publish(ctx, s.publisher, s.log, s.clock, EventMembershipActivated, accountID.String(), membershipEvent(membership))
	} else {
		log.Info("duplicate payment notification absorbed")
	}
	return &ReconcileOutcome{IntentType: db_models.IntentTypeMembership, RecordID: membership.ID, Created: created}, nil
}

// dropPayment records a confirmed payment that produced no record and
// alerts on the first occurrence.
func (s *paymentService) dropPayment(ctx context.Context, n PaymentNotification, intentType db_models.IntentType, accountID uuid.UUID, reason string, log *zap.Logger) error {
	const op = "services.PaymentService.dropPayment"

	failure := &db_models.ReconciliationFailure{
		ProviderIntentID: n.IntentID,
		Reason:           reason,
		IntentType:       string(intentType),
		AccountID:        accountID,
		AmountMinor:      n.AmountMinor,
		Payload:          datatypes.JSON(rawOrMetadata(n)),
	}
	inserted, err := s.payments.RecordFailure(ctx, failure)
	if err != nil {
		log.Error("failed to record reconciliation failure", zap.String("reason", reason), zap.Error(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := s.payments.MarkPaid(ctx, n.IntentID, s.clock.Now().Unix()); err != nil {
		log.Warn("failed to mark dropped payment as paid", zap.Error(err))
	}

	log.Error("confirmed payment dropped", zap.String("reason", reason), zap.Bool("first_delivery", inserted))
	if inserted {
		publish(ctx, s.publisher, s.log, s.clock, EventReconciliationFailed, n.IntentID, map[string]interface{}{
			"payment_intent_id": n.IntentID,
			"reason":            reason,
			"intent_type":       string(intentType),
			"user_id":           accountID.String(),
			"amount_minor":      n.AmountMinor,
		})
	}
	return fmt.Errorf("%w: %s", utils.ErrReconciliationDropped, reason)
}

func rawOrMetadata(n PaymentNotification) []byte {
	if json.Valid(n.Raw) {
		return n.Raw
	}
	b, _ := json.Marshal(n.Metadata)
	return b
}

func (s *paymentService) Config() resp.PaymentConfigResponse {
	return resp.PaymentConfigResponse{
		PublishableKey: s.stripe.PublishableKey,
		Currency:       s.stripe.Currency,
	}
}

func (s *paymentService) ListFailures(ctx context.Context, p access.Principal, limit int) ([]resp.ReconciliationFailureResponse, error) {
	const op = "services.PaymentService.ListFailures"

	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}

	failures, err := s.payments.ListFailures(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]resp.ReconciliationFailureResponse, 0, len(failures))
	for _, f := range failures {
		out = append(out, resp.ReconciliationFailureResponse{
			ID:               f.ID.String(),
			ProviderIntentID: f.ProviderIntentID,
			Reason:           f.Reason,
			IntentType:       f.IntentType,
			AccountID:        f.AccountID.String(),
			AmountMinor:      f.AmountMinor,
			CreatedAt:        utils.FormatRFC3339(f.CreatedAt, s.clock.Loc),
		})
	}
	return out, nil
}
