package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"alumni/internal/config"
	"alumni/internal/repositories"
	"alumni/internal/testutil"
	mem "alumni/pkg/memcache"
	"alumni/pkg/utils"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) ofType(eventType string) []DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []DomainEvent
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fakeGateway struct {
	mu      sync.Mutex
	calls   []IntentRequest
	errs    []error
	webhook *PaymentNotification
}

func (g *fakeGateway) Provider() string { return "fake" }

// CreateIntent fails with the queued errors in order, then succeeds.
func (g *fakeGateway) CreateIntent(_ context.Context, req IntentRequest) (*Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls = append(g.calls, req)
	if len(g.errs) > 0 {
		err := g.errs[0]
		g.errs = g.errs[1:]
		return nil, err
	}
	return &Intent{ID: "pi_" + req.IdempotencyKey, ClientSecret: "secret_" + req.IdempotencyKey}, nil
}

func (g *fakeGateway) ParseWebhook(_ []byte, signature string) (*PaymentNotification, error) {
	if signature != "valid" {
		return nil, utils.ErrInvalidWebhook
	}
	return g.webhook, nil
}

type harness struct {
	db        *gorm.DB
	clock     *Clock
	publisher *recordingPublisher
	gateway   *fakeGateway

	tx            repositories.Transactor
	accounts      repositories.AccountRepository
	events        repositories.EventRepository
	registrations repositories.RegistrationRepository
	memberships   repositories.MembershipRepository
	payments      repositories.PaymentRepository

	entitlements EntitlementService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := testutil.NewDB(t)
	h := &harness{
		db:            db,
		clock:         NewClock(time.UTC),
		publisher:     &recordingPublisher{},
		gateway:       &fakeGateway{},
		tx:            repositories.NewTransactor(db),
		accounts:      repositories.NewAccountRepository(db),
		events:        repositories.NewEventRepository(db),
		registrations: repositories.NewRegistrationRepository(db),
		memberships:   repositories.NewMembershipRepository(db),
		payments:      repositories.NewPaymentRepository(db),
	}
	h.entitlements = NewEntitlementService(h.accounts, h.memberships, h.events, h.clock)
	return h
}

func (h *harness) registrationService() RegistrationService {
	return NewRegistrationService(h.tx, h.events, h.registrations, h.payments, h.entitlements, h.publisher, h.clock, zap.NewNop())
}

func (h *harness) membershipService() MembershipService {
	return NewMembershipService(h.tx, h.accounts, h.memberships, h.payments, h.publisher, h.clock, zap.NewNop())
}

func (h *harness) eventService() EventService {
	return NewEventService(h.tx, h.events, h.registrations, h.entitlements, h.clock, zap.NewNop())
}

func (h *harness) accountService(store mem.ResetTokenStore) AccountServiceInterface {
	return NewAccountService(
		h.accounts,
		h.entitlements,
		utils.NewTokenManager("test-secret", time.Hour),
		store,
		h.publisher,
		AccountSettings{ResetTokenTTL: 15 * time.Minute, FrontendURL: "https://alumni.example.org/"},
		h.clock,
		zap.NewNop(),
	)
}

func (h *harness) paymentService(maxAttempts int) *paymentService {
	svc := NewPaymentService(PaymentDeps{
		Tx:            h.tx,
		Accounts:      h.accounts,
		Events:        h.events,
		Registrations: h.registrations,
		Memberships:   h.memberships,
		Payments:      h.payments,
		Entitlements:  h.entitlements,
		Gateway:       h.gateway,
		Publisher:     h.publisher,
	}, config.StripeConfig{
		PublishableKey: "pk_test",
		Currency:       "usd",
		MaxAttempts:    maxAttempts,
	}, config.MembershipPricing{
		Monthly:  1000,
		Annual:   10000,
		Lifetime: 50000,
	}, h.clock, zap.NewNop()).(*paymentService)
	svc.backoff = func(int) time.Duration { return 0 }
	return svc
}

// activeMembership gives accountID a membership covering today.
func (h *harness) activeMembership(t *testing.T, accountID uuid.UUID) {
	t.Helper()
	today := h.clock.Today()
	testutil.CreateMembership(t, h.db, accountID, today-86400, today+30*86400)
}
