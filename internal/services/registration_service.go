package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alumni/internal/access"
	"alumni/internal/models/db_models"
	resp "alumni/internal/models/response_models"
	"alumni/internal/repositories"
	"alumni/pkg/utils"
)

type RegistrationService interface {
	// Register creates the caller's registration for an event. A payment
	// reference must be an intent this account created for this event; it
	// settles a pending registration in place. Replaying a reference that
	// already produced this registration returns it with created == false.
	Register(ctx context.Context, p access.Principal, eventID uuid.UUID, paymentReference string) (r *resp.RegistrationResponse, created bool, err error)
	MyEvents(ctx context.Context, p access.Principal) ([]resp.EventResponse, error)
	ListForEvent(ctx context.Context, p access.Principal, eventID uuid.UUID) ([]resp.RegistrationResponse, error)
	UpdateAttendance(ctx context.Context, p access.Principal, registrationID uuid.UUID, attended bool) (*resp.RegistrationResponse, error)
	Cancel(ctx context.Context, p access.Principal, eventID uuid.UUID) error
}

type registrationService struct {
	tx            repositories.Transactor
	events        repositories.EventRepository
	registrations repositories.RegistrationRepository
	payments      repositories.PaymentRepository
	entitlements  EntitlementService
	publisher     EventPublisher
	clock         *Clock
	log           *zap.Logger
}

func NewRegistrationService(
	tx repositories.Transactor,
	events repositories.EventRepository,
	registrations repositories.RegistrationRepository,
	payments repositories.PaymentRepository,
	entitlements EntitlementService,
	publisher EventPublisher,
	clock *Clock,
	log *zap.Logger,
) RegistrationService {
	return &registrationService{
		tx:            tx,
		events:        events,
		registrations: registrations,
		payments:      payments,
		entitlements:  entitlements,
		publisher:     publisher,
		clock:         clock,
		log:           log,
	}
}

func (s *registrationService) Register(ctx context.Context, p access.Principal, eventID uuid.UUID, paymentReference string) (*resp.RegistrationResponse, bool, error) {
	const op = "services.RegistrationService.Register"
	log := s.log.With(zap.String("op", op), zap.String("event_id", eventID.String()))

	if err := access.RequireAuthenticated(p); err != nil {
		return nil, false, err
	}

	var (
		registration *db_models.Registration
		created      bool
		settled      bool
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		event, err := s.events.LockByID(ctx, eventID)
		if err != nil {
			return err
		}
		if event == nil {
			return utils.ErrEventNotFound
		}

		var intent *db_models.Transaction
		if paymentReference != "" {
			existing, err := s.registrations.FindByPaymentReference(ctx, paymentReference)
			if err != nil {
				return err
			}
			if existing != nil {
				if existing.AccountID != p.AccountID || existing.EventID != eventID {
					return utils.ErrAlreadyRegistered
				}
				registration = existing
				return nil
			}

			if intent, err = s.eventIntent(ctx, p.AccountID, eventID, paymentReference); err != nil {
				return err
			}
		}

		hasActive, err := s.needsMembership(ctx, p, event)
		if err != nil {
			return err
		}
		if err := access.RegisterForEvent(p, event, hasActive); err != nil {
			return err
		}

		existing, err := s.registrations.FindByAccountAndEvent(ctx, p.AccountID, eventID)
		if err != nil {
			return err
		}
		if existing != nil && intent != nil && existing.PaymentStatus == db_models.PaymentStatusPending {
			if err := s.registrations.Settle(ctx, existing.ID, paymentReference, intent.AmountMinor); err != nil {
				return err
			}
			existing.PaymentStatus = db_models.PaymentStatusPaid
			existing.PaymentReference = optionalString(paymentReference)
			existing.AmountMinor = intent.AmountMinor
			registration, settled = existing, true
			return nil
		}

		count, err := s.registrations.CountByEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if err := access.CheckSeat(event, existing != nil, count); err != nil {
			return err
		}

		// Without a payment, a priced seat is held as pending until an intent
		// for it is paid.
		status, amount := db_models.PaymentStatusPaid, event.PriceMinor
		switch {
		case intent != nil:
			amount = intent.AmountMinor
		case event.PriceMinor > 0:
			status = db_models.PaymentStatusPending
		}
		registration = &db_models.Registration{
			AccountID:        p.AccountID,
			EventID:          eventID,
			PaymentStatus:    status,
			PaymentReference: optionalString(paymentReference),
			AmountMinor:      amount,
			RegisteredAt:     s.clock.Now().Unix(),
		}
		if err := s.registrations.Insert(ctx, registration); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		if _, sentinel := utils.Classify(err); sentinel == nil {
			log.Error("failed to register for event", zap.Error(err))
			return nil, false, fmt.Errorf("%s: %w", op, err)
		}
		return nil, false, err
	}

	switch {
	case created:
		log.Info("registration created", zap.String("registration_id", registration.ID.String()))
		publish(ctx, s.publisher, s.log, s.clock, EventRegistrationCreated, eventID.String(), registrationEvent(registration))
	case settled:
		log.Info("pending registration paid", zap.String("registration_id", registration.ID.String()))
		publish(ctx, s.publisher, s.log, s.clock, EventRegistrationPaid, eventID.String(), registrationEvent(registration))
	}

	out := toRegistrationResponse(registration, s.clock.Loc)
	return &out, created, nil
}

// eventIntent returns the ledger row for reference when this account created
// it for this event and it has not failed.
func (s *registrationService) eventIntent(ctx context.Context, accountID, eventID uuid.UUID, reference string) (*db_models.Transaction, error) {
	intent, err := s.payments.FindByProviderIntentID(ctx, reference)
	if err != nil {
		return nil, err
	}
	if intent == nil ||
		intent.AccountID != accountID ||
		intent.IntentType != db_models.IntentTypeEvent ||
		intent.EventID == nil || *intent.EventID != eventID ||
		intent.Status == db_models.TxnStatusFailed {
		return nil, utils.ErrInvalidPaymentRef
	}
	return intent, nil
}

func (s *registrationService) needsMembership(ctx context.Context, p access.Principal, event *db_models.Event) (bool, error) {
	if !event.IsMembersOnly || p.IsAdmin() {
		return false, nil
	}
	return s.entitlements.HasActiveMembership(ctx, p)
}

func (s *registrationService) MyEvents(ctx context.Context, p access.Principal) ([]resp.EventResponse, error) {
	const op = "services.RegistrationService.MyEvents"

	if err := access.RequireAuthenticated(p); err != nil {
		return nil, err
	}

	registrations, err := s.registrations.ListByAccount(ctx, p.AccountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ids := make([]uuid.UUID, 0, len(registrations))
	for _, r := range registrations {
		ids = append(ids, r.EventID)
	}

	events, err := s.events.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	counts, err := s.registrations.CountByEvents(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]resp.EventResponse, 0, len(events))
	for i := range events {
		item := toEventResponse(&events[i], s.clock.Loc)
		count := counts[events[i].ID]
		registered := true
		item.RegisteredCount = &count
		item.IsRegistered = &registered
		out = append(out, item)
	}
	return out, nil
}

func (s *registrationService) ListForEvent(ctx context.Context, p access.Principal, eventID uuid.UUID) ([]resp.RegistrationResponse, error) {
	const op = "services.RegistrationService.ListForEvent"

	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}

	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if event == nil {
		return nil, utils.ErrEventNotFound
	}

	registrations, err := s.registrations.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]resp.RegistrationResponse, 0, len(registrations))
	for i := range registrations {
		out = append(out, toRegistrationResponse(&registrations[i], s.clock.Loc))
	}
	return out, nil
}

func (s *registrationService) UpdateAttendance(ctx context.Context, p access.Principal, registrationID uuid.UUID, attended bool) (*resp.RegistrationResponse, error) {
	const op = "services.RegistrationService.UpdateAttendance"

	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}

	if err := s.registrations.SetAttended(ctx, registrationID, attended); err != nil {
		return nil, err
	}

	registration, err := s.registrations.FindByID(ctx, registrationID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if registration == nil {
		return nil, utils.ErrRegistrationNotFound
	}

	out := toRegistrationResponse(registration, s.clock.Loc)
	return &out, nil
}

// Cancel removes the caller's registration while the event is still in the
// future.
func (s *registrationService) Cancel(ctx context.Context, p access.Principal, eventID uuid.UUID) error {
	const op = "services.RegistrationService.Cancel"

	if err := access.RequireAuthenticated(p); err != nil {
		return err
	}

	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if event == nil {
		return utils.ErrEventNotFound
	}
	if event.HasStarted(s.clock.Now()) {
		return utils.ErrEventAlreadyStarted
	}

	registration, err := s.registrations.FindByAccountAndEvent(ctx, p.AccountID, eventID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if registration == nil {
		return utils.ErrRegistrationNotFound
	}

	if err := s.registrations.Delete(ctx, registration.ID); err != nil {
		return err
	}

	s.log.Info("registration cancelled",
		zap.String("op", op),
		zap.String("registration_id", registration.ID.String()),
		zap.String("event_id", eventID.String()))
	publish(ctx, s.publisher, s.log, s.clock, EventRegistrationCancelled, eventID.String(), registrationEvent(registration))
	return nil
}

type registrationEventData struct {
	RegistrationID   string  `json:"registration_id"`
	AccountID        string  `json:"user_id"`
	EventID          string  `json:"event_id"`
	PaymentReference *string `json:"payment_intent_id,omitempty"`
	AmountMinor      int64   `json:"amount_minor"`
}

func registrationEvent(r *db_models.Registration) registrationEventData {
	return registrationEventData{
		RegistrationID:   r.ID.String(),
		AccountID:        r.AccountID.String(),
		EventID:          r.EventID.String(),
		PaymentReference: r.PaymentReference,
		AmountMinor:      r.AmountMinor,
	}
}
