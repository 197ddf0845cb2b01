package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alumni/internal/models/db_models"
	"alumni/internal/testutil"
	"alumni/pkg/utils"
)

func ref(s string) *string { return &s }

func TestAccountRepository_InsertDuplicateEmail(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	first := &db_models.Account{Email: "ada@example.com", PasswordHash: "x", FirstName: "Ada", LastName: "Lovelace"}
	require.NoError(t, repo.Insert(ctx, first))

	dup := &db_models.Account{Email: "ada@example.com", PasswordHash: "y", FirstName: "A", LastName: "L"}
	assert.ErrorIs(t, repo.Insert(ctx, dup), utils.ErrEmailAlreadyExists)

	found, err := repo.FindByEmail(ctx, "  ADA@example.com ")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)

	missing, err := repo.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAccountRepository_Search(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	year := 2010
	grace := &db_models.Account{
		Email: "grace@example.com", PasswordHash: "x", FirstName: "Grace", LastName: "Hopper",
		GraduationYear: &year, Major: "Mathematics", Company: "Navy", Location: "Arlington",
	}
	require.NoError(t, repo.Insert(ctx, grace))
	testutil.CreateAccount(t, db, false)
	testutil.CreateAccount(t, db, false)

	page := utils.Page{Page: 1, PageSize: 10}

	found, total, err := repo.Search(ctx, DirectoryFilter{Name: "hop"}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, found, 1)
	assert.Equal(t, grace.ID, found[0].ID)

	found, _, err = repo.Search(ctx, DirectoryFilter{GraduationYear: &year, Major: "math"}, page)
	require.NoError(t, err)
	require.Len(t, found, 1)

	_, total, err = repo.List(ctx, utils.Page{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestEventRepository_ListHidesMembersOnly(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	testutil.CreateEvent(t, db)
	testutil.CreateEvent(t, db, testutil.MembersOnly())

	page := utils.Page{Page: 1, PageSize: 10}

	events, total, err := repo.List(ctx, EventFilter{}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, events, 1)
	assert.False(t, events[0].IsMembersOnly)

	_, total, err = repo.List(ctx, EventFilter{IncludeMembersOnly: true}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestEventRepository_DeleteRemovesRegistrations(t *testing.T) {
	db := testutil.NewDB(t)
	events := NewEventRepository(db)
	registrations := NewRegistrationRepository(db)
	tx := NewTransactor(db)
	ctx := context.Background()

	event := testutil.CreateEvent(t, db)
	account := testutil.CreateAccount(t, db, false)
	require.NoError(t, registrations.Insert(ctx, &db_models.Registration{
		AccountID: account.ID, EventID: event.ID, PaymentStatus: db_models.PaymentStatusPaid,
	}))

	require.NoError(t, tx.RunInTx(ctx, func(ctx context.Context) error {
		return events.Delete(ctx, event.ID)
	}))

	count, err := registrations.CountByEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	assert.ErrorIs(t, events.Delete(ctx, event.ID), utils.ErrEventNotFound)
}

func TestRegistrationRepository_Uniqueness(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewRegistrationRepository(db)
	ctx := context.Background()

	event := testutil.CreateEvent(t, db)
	other := testutil.CreateEvent(t, db)
	account := testutil.CreateAccount(t, db, false)

	require.NoError(t, repo.Insert(ctx, &db_models.Registration{
		AccountID: account.ID, EventID: event.ID, PaymentStatus: db_models.PaymentStatusPaid, PaymentReference: ref("pi_1"),
	}))

	t.Run("same account and event", func(t *testing.T) {
		err := repo.Insert(ctx, &db_models.Registration{
			AccountID: account.ID, EventID: event.ID, PaymentStatus: db_models.PaymentStatusPaid,
		})
		assert.ErrorIs(t, err, utils.ErrAlreadyRegistered)
	})

	t.Run("same payment reference", func(t *testing.T) {
		err := repo.Insert(ctx, &db_models.Registration{
			AccountID: account.ID, EventID: other.ID, PaymentStatus: db_models.PaymentStatusPaid, PaymentReference: ref("pi_1"),
		})
		assert.ErrorIs(t, err, utils.ErrAlreadyRegistered)
	})

	t.Run("missing references do not collide", func(t *testing.T) {
		second := testutil.CreateAccount(t, db, false)
		third := testutil.CreateAccount(t, db, false)
		require.NoError(t, repo.Insert(ctx, &db_models.Registration{AccountID: second.ID, EventID: other.ID}))
		require.NoError(t, repo.Insert(ctx, &db_models.Registration{AccountID: third.ID, EventID: other.ID}))
	})

	found, err := repo.FindByPaymentReference(ctx, "pi_1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, event.ID, found.EventID)

	counts, err := repo.CountByEvents(ctx, []uuid.UUID{event.ID, other.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[event.ID])
	assert.Equal(t, int64(2), counts[other.ID])

	registered, err := repo.RegisteredEventIDs(ctx, account.ID, []uuid.UUID{event.ID, other.ID})
	require.NoError(t, err)
	assert.True(t, registered[event.ID])
	assert.False(t, registered[other.ID])
}

func TestRegistrationRepository_SetAttendedAndDelete(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewRegistrationRepository(db)
	ctx := context.Background()

	event := testutil.CreateEvent(t, db)
	account := testutil.CreateAccount(t, db, false)
	reg := &db_models.Registration{AccountID: account.ID, EventID: event.ID, PaymentStatus: db_models.PaymentStatusPaid}
	require.NoError(t, repo.Insert(ctx, reg))

	require.NoError(t, repo.SetAttended(ctx, reg.ID, true))
	found, err := repo.FindByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.True(t, found.Attended)

	require.NoError(t, repo.Delete(ctx, reg.ID))
	assert.ErrorIs(t, repo.Delete(ctx, reg.ID), utils.ErrRegistrationNotFound)
	assert.ErrorIs(t, repo.SetAttended(ctx, reg.ID, false), utils.ErrRegistrationNotFound)
}

func TestRegistrationRepository_Settle(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewRegistrationRepository(db)
	ctx := context.Background()

	event := testutil.CreateEvent(t, db)
	account := testutil.CreateAccount(t, db, false)
	pending := &db_models.Registration{AccountID: account.ID, EventID: event.ID, PaymentStatus: db_models.PaymentStatusPending}
	require.NoError(t, repo.Insert(ctx, pending))

	require.NoError(t, repo.Settle(ctx, pending.ID, "pi_settle", 2500))
	found, err := repo.FindByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, db_models.PaymentStatusPaid, found.PaymentStatus)
	require.NotNil(t, found.PaymentReference)
	assert.Equal(t, "pi_settle", *found.PaymentReference)
	assert.Equal(t, int64(2500), found.AmountMinor)

	assert.ErrorIs(t, repo.Settle(ctx, pending.ID, "pi_again", 2500), utils.ErrRegistrationNotFound)
	assert.ErrorIs(t, repo.Settle(ctx, uuid.New(), "pi_none", 2500), utils.ErrRegistrationNotFound)

	other := testutil.CreateAccount(t, db, false)
	second := &db_models.Registration{AccountID: other.ID, EventID: event.ID, PaymentStatus: db_models.PaymentStatusPending}
	require.NoError(t, repo.Insert(ctx, second))
	assert.ErrorIs(t, repo.Settle(ctx, second.ID, "pi_settle", 2500), utils.ErrAlreadyRegistered)
}

func TestMembershipRepository_FindCurrentAndStats(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewMembershipRepository(db)
	ctx := context.Background()

	today := utils.TodayUnix(time.Now(), time.UTC)
	day := int64(24 * 60 * 60)
	account := testutil.CreateAccount(t, db, false)

	expired := testutil.CreateMembership(t, db, account.ID, today-400*day, today-35*day)
	current := testutil.CreateMembership(t, db, account.ID, today-10*day, today+10*day)
	require.NoError(t, repo.Insert(ctx, &db_models.Membership{
		AccountID: account.ID, MembershipType: "monthly", StartDate: today, EndDate: today + 30*day,
		AmountMinor: 1000, IsActive: false, PaymentReference: ref("pi_m"),
	}))

	found, err := repo.FindCurrent(ctx, account.ID, today)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, current.ID, found.ID)
	assert.NotEqual(t, expired.ID, found.ID)

	dup := &db_models.Membership{AccountID: account.ID, MembershipType: "monthly", PaymentReference: ref("pi_m"), IsActive: true}
	assert.ErrorIs(t, repo.Insert(ctx, dup), utils.ErrMembershipAlreadyActive)

	stats, err := repo.Stats(ctx, today, time.Now().Add(-30*24*time.Hour).Unix(), today+30*day)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ActiveMemberships)
	assert.Equal(t, int64(1), stats.ByType["annual"])
	assert.Equal(t, int64(1), stats.ExpiringMemberships)
	assert.Equal(t, int64(3), stats.NewMemberships)
	assert.Equal(t, int64(21000), stats.TotalRevenueMinor)

	require.NoError(t, repo.Deactivate(ctx, current.ID))
	found, err = repo.FindCurrent(ctx, account.ID, today)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestPaymentRepository_LedgerAndFailures(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	txn := &db_models.Transaction{
		AccountID: uuid.New(), IntentType: db_models.IntentTypeMembership, MembershipType: "annual",
		AmountMinor: 10000, Currency: "usd", Status: db_models.TxnStatusPending,
		Provider: "stripe", ProviderIntentID: "pi_ledger",
	}
	require.NoError(t, repo.Insert(ctx, txn))

	changed, err := repo.MarkPaid(ctx, "pi_ledger", time.Now().Unix())
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.MarkPaid(ctx, "pi_ledger", time.Now().Unix())
	require.NoError(t, err)
	assert.False(t, changed, "second delivery must not touch the ledger")

	changed, err = repo.MarkFailed(ctx, "pi_ledger")
	require.NoError(t, err)
	assert.False(t, changed, "a paid intent never goes back to failed")

	failure := func() *db_models.ReconciliationFailure {
		return &db_models.ReconciliationFailure{
			ProviderIntentID: "pi_lost", Reason: db_models.FailureEventNotFound, IntentType: "event",
		}
	}
	inserted, err := repo.RecordFailure(ctx, failure())
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.RecordFailure(ctx, failure())
	require.NoError(t, err)
	assert.False(t, inserted)

	failures, err := repo.ListFailures(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, failures, 1)
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	db := testutil.NewDB(t)
	tx := NewTransactor(db)
	events := NewEventRepository(db)
	ctx := context.Background()

	boom := errors.New("boom")
	var id uuid.UUID
	err := tx.RunInTx(ctx, func(ctx context.Context) error {
		event := &db_models.Event{Title: "Rollback", Description: "-", Location: "-", StartsAt: time.Now().Unix()}
		if err := events.Insert(ctx, event); err != nil {
			return err
		}
		id = event.ID
		return boom
	})
	assert.ErrorIs(t, err, boom)

	found, err := events.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, found)
}
