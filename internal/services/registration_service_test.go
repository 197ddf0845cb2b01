package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alumni/internal/access"
	"alumni/internal/models/db_models"
	"alumni/internal/testutil"
	"alumni/pkg/utils"
)

func TestRegister_CapacityHoldsUnderConcurrency(t *testing.T) {
	h := newHarness(t)
	svc := h.registrationService()
	event := testutil.CreateEvent(t, h.db, testutil.WithCapacity(5))

	const callers = 20
	principals := make([]access.Principal, callers)
	for i := range principals {
		principals[i] = access.Member(testutil.CreateAccount(t, h.db, false).ID)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		full    int
	)
	for _, p := range principals {
		wg.Add(1)
		go func(p access.Principal) {
			defer wg.Done()
			_, ok, err := svc.Register(context.Background(), p, event.ID, "")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && ok:
				created++
			case errors.Is(err, utils.ErrEventFull):
				full++
			default:
				t.Errorf("unexpected result: created=%v err=%v", ok, err)
			}
		}(p)
	}
	wg.Wait()

	assert.Equal(t, 5, created)
	assert.Equal(t, callers-5, full)

	count, err := h.registrations.CountByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
	assert.Len(t, h.publisher.ofType(EventRegistrationCreated), 5)
}

func TestRegister_SecondRegistrationConflicts(t *testing.T) {
	h := newHarness(t)
	svc := h.registrationService()
	event := testutil.CreateEvent(t, h.db)
	p := access.Member(testutil.CreateAccount(t, h.db, false).ID)

	reg, created, err := svc.Register(context.Background(), p, event.ID, "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, string(db_models.PaymentStatusPending), reg.PaymentStatus)
	assert.Equal(t, event.PriceMinor, reg.AmountMinor)

	_, _, err = svc.Register(context.Background(), p, event.ID, "")
	assert.ErrorIs(t, err, utils.ErrAlreadyRegistered)
}

func TestRegister_PaymentStatus(t *testing.T) {
	h := newHarness(t)
	svc := h.registrationService()
	p := access.Member(testutil.CreateAccount(t, h.db, false).ID)

	free := testutil.CreateEvent(t, h.db, testutil.WithPrice(0))
	reg, _, err := svc.Register(context.Background(), p, free.ID, "")
	require.NoError(t, err)
	assert.Equal(t, string(db_models.PaymentStatusPaid), reg.PaymentStatus)

	paid := testutil.CreateEvent(t, h.db)
	testutil.CreateEventIntent(t, h.db, p.AccountID, paid, "pi_123")
	reg, _, err = svc.Register(context.Background(), p, paid.ID, "pi_123")
	require.NoError(t, err)
	assert.Equal(t, string(db_models.PaymentStatusPaid), reg.PaymentStatus)
	require.NotNil(t, reg.PaymentReference)
	assert.Equal(t, "pi_123", *reg.PaymentReference)
}

func TestRegister_PaymentReferenceReplay(t *testing.T) {
	h := newHarness(t)
	svc := h.registrationService()
	event := testutil.CreateEvent(t, h.db)
	owner := access.Member(testutil.CreateAccount(t, h.db, false).ID)
	other := access.Member(testutil.CreateAccount(t, h.db, false).ID)
	testutil.CreateEventIntent(t, h.db, owner.AccountID, event, "pi_replay")

	first, created, err := svc.Register(context.Background(), owner, event.ID, "pi_replay")
	require.NoError(t, err)
	require.True(t, created)

	again, created, err := svc.Register(context.Background(), owner, event.ID, "pi_replay")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	_, _, err = svc.Register(context.Background(), other, event.ID, "pi_replay")
	assert.ErrorIs(t, err, utils.ErrAlreadyRegistered)
	assert.Len(t, h.publisher.ofType(EventRegistrationCreated), 1)
}

func TestRegister_PaymentReferenceMustMatchLedger(t *testing.T) {
	h := newHarness(t)
	svc := h.registrationService()
	ctx := context.Background()
	event := testutil.CreateEvent(t, h.db)
	elsewhere := testutil.CreateEvent(t, h.db)
	p := access.Member(testutil.CreateAccount(t, h.db, false).ID)
	stranger := testutil.CreateAccount(t, h.db, false)

	testutil.CreateEventIntent(t, h.db, stranger.ID, event, "pi_stranger")
	testutil.CreateEventIntent(t, h.db, p.AccountID, elsewhere, "pi_elsewhere")
	testutil.CreateMembershipIntent(t, h.db, p.AccountID, "annual", 10000, "pi_membership")
	failed := testutil.CreateEventIntent(t, h.db, p.AccountID, event, "pi_failed")
	require.NoError(t, h.db.Model(failed).Update("status", db_models.TxnStatusFailed).Error)

	for _, reference := range []string{"pi_unknown", "pi_stranger", "pi_elsewhere", "pi_membership", "pi_failed"} {
		t.Run(reference, func(t *testing.T) {
			_, _, err := svc.Register(ctx, p, event.ID, reference)
			assert.ErrorIs(t, err, utils.ErrInvalidPaymentRef)
		})
	}

	count, err := h.registrations.CountByEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRegister_AmountComesFromLedger(t *testing.T) {
	h := newHarness(t)
	event := testutil.CreateEvent(t, h.db, testutil.WithPrice(4000))
	p := access.Member(testutil.CreateAccount(t, h.db, false).ID)
	intent := testutil.CreateEventIntent(t, h.db, p.AccountID, event, "pi_old_price")
	require.NoError(t, h.db.Model(intent).Update("amount_minor", 3500).Error)

	reg, _, err := h.registrationService().Register(context.Background(), p, event.ID, "pi_old_price")
	require.NoError(t, err)
	assert.Equal(t, int64(3500), reg.AmountMinor)
}

func TestRegister_PaymentSettlesPendingRegistration(t *testing.T) {
	h := newHarness(t)
	svc := h.registrationService()
	ctx := context.Background()
	event := testutil.CreateEvent(t, h.db)
	p := access.Member(testutil.CreateAccount(t, h.db, false).ID)

	held, created, err := svc.Register(ctx, p, event.ID, "")
	require.NoError(t, err)
	require.True(t, created)
	assert.Equal(t, string(db_models.PaymentStatusPending), held.PaymentStatus)

	_, _, err = svc.Register(ctx, p, event.ID, "")
	assert.ErrorIs(t, err, utils.ErrAlreadyRegistered)

	testutil.CreateEventIntent(t, h.db, p.AccountID, event, "pi_settle")
	paid, created, err := svc.Register(ctx, p, event.ID, "pi_settle")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, held.ID, paid.ID)
	assert.Equal(t, string(db_models.PaymentStatusPaid), paid.PaymentStatus)
	require.NotNil(t, paid.PaymentReference)
	assert.Equal(t, "pi_settle", *paid.PaymentReference)

	count, err := h.registrations.CountByEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Len(t, h.publisher.ofType(EventRegistrationCreated), 1)
	assert.Len(t, h.publisher.ofType(EventRegistrationPaid), 1)
}

func TestRegister_Entitlements(t *testing.T) {
	h := newHarness(t)
	svc := h.registrationService()
	event := testutil.CreateEvent(t, h.db, testutil.MembersOnly())
	ctx := context.Background()

	_, _, err := svc.Register(ctx, access.Anonymous(), event.ID, "")
	assert.ErrorIs(t, err, utils.ErrAuthRequired)

	member := testutil.CreateAccount(t, h.db, false)
	_, _, err = svc.Register(ctx, access.Member(member.ID), event.ID, "")
	assert.ErrorIs(t, err, utils.ErrMembershipRequired)

	h.activeMembership(t, member.ID)
	_, _, err = svc.Register(ctx, access.Member(member.ID), event.ID, "")
	assert.NoError(t, err)

	admin := testutil.CreateAccount(t, h.db, true)
	_, _, err = svc.Register(ctx, access.Admin(admin.ID), event.ID, "")
	assert.NoError(t, err)
}

func TestRegister_ExpiredMembershipDoesNotEntitle(t *testing.T) {
	h := newHarness(t)
	svc := h.registrationService()
	event := testutil.CreateEvent(t, h.db, testutil.MembersOnly())
	member := testutil.CreateAccount(t, h.db, false)

	today := h.clock.Today()
	testutil.CreateMembership(t, h.db, member.ID, today-400*86400, today-86400)

	_, _, err := svc.Register(context.Background(), access.Member(member.ID), event.ID, "")
	assert.ErrorIs(t, err, utils.ErrMembershipRequired)
}

func TestRegister_UnknownEvent(t *testing.T) {
	h := newHarness(t)
	p := access.Member(testutil.CreateAccount(t, h.db, false).ID)

	_, _, err := h.registrationService().Register(context.Background(), p, uuid.New(), "")
	assert.ErrorIs(t, err, utils.ErrEventNotFound)
}

func TestCancel(t *testing.T) {
	h := newHarness(t)
	svc := h.registrationService()
	ctx := context.Background()
	account := testutil.CreateAccount(t, h.db, false)
	p := access.Member(account.ID)

	t.Run("future event", func(t *testing.T) {
		event := testutil.CreateEvent(t, h.db, testutil.StartsAt(time.Now().Add(time.Hour)))
		_, _, err := svc.Register(ctx, p, event.ID, "")
		require.NoError(t, err)

		require.NoError(t, svc.Cancel(ctx, p, event.ID))

		existing, err := h.registrations.FindByAccountAndEvent(ctx, account.ID, event.ID)
		require.NoError(t, err)
		assert.Nil(t, existing)
		assert.Len(t, h.publisher.ofType(EventRegistrationCancelled), 1)
	})

	t.Run("started event", func(t *testing.T) {
		event := testutil.CreateEvent(t, h.db, testutil.StartsAt(time.Now().Add(time.Hour)))
		_, _, err := svc.Register(ctx, p, event.ID, "")
		require.NoError(t, err)

		started := h.clock.Now().Add(-time.Hour).Unix()
		require.NoError(t, h.db.Model(&db_models.Event{}).Where("id = ?", event.ID).Update("starts_at", started).Error)

		assert.ErrorIs(t, svc.Cancel(ctx, p, event.ID), utils.ErrEventAlreadyStarted)

		existing, err := h.registrations.FindByAccountAndEvent(ctx, account.ID, event.ID)
		require.NoError(t, err)
		assert.NotNil(t, existing)
	})

	t.Run("not registered", func(t *testing.T) {
		event := testutil.CreateEvent(t, h.db)
		assert.ErrorIs(t, svc.Cancel(ctx, p, event.ID), utils.ErrRegistrationNotFound)
	})

	t.Run("unknown event", func(t *testing.T) {
		assert.ErrorIs(t, svc.Cancel(ctx, p, uuid.New()), utils.ErrEventNotFound)
	})
}

func TestMyEvents(t *testing.T) {
	h := newHarness(t)
	svc := h.registrationService()
	ctx := context.Background()
	p := access.Member(testutil.CreateAccount(t, h.db, false).ID)

	first := testutil.CreateEvent(t, h.db)
	testutil.CreateEvent(t, h.db)
	_, _, err := svc.Register(ctx, p, first.ID, "")
	require.NoError(t, err)

	events, err := svc.MyEvents(ctx, p)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, first.ID.String(), events[0].ID)
	assert.Equal(t, int64(1), *events[0].RegisteredCount)
	assert.True(t, *events[0].IsRegistered)
}

func TestAdminRegistrationOperations(t *testing.T) {
	h := newHarness(t)
	svc := h.registrationService()
	ctx := context.Background()
	member := access.Member(testutil.CreateAccount(t, h.db, false).ID)
	admin := access.Admin(testutil.CreateAccount(t, h.db, true).ID)
	event := testutil.CreateEvent(t, h.db)

	reg, _, err := svc.Register(ctx, member, event.ID, "")
	require.NoError(t, err)

	_, err = svc.ListForEvent(ctx, member, event.ID)
	assert.ErrorIs(t, err, utils.ErrAdminRequired)

	list, err := svc.ListForEvent(ctx, admin, event.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	regID := testutil.MustParseUUID(t, reg.ID)
	_, err = svc.UpdateAttendance(ctx, member, regID, true)
	assert.ErrorIs(t, err, utils.ErrAdminRequired)

	updated, err := svc.UpdateAttendance(ctx, admin, regID, true)
	require.NoError(t, err)
	assert.True(t, updated.Attended)

	_, err = svc.UpdateAttendance(ctx, admin, uuid.New(), true)
	assert.ErrorIs(t, err, utils.ErrRegistrationNotFound)
}
