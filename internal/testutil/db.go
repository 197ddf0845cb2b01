// Package testutil opens throwaway databases and writes fixtures for package
// tests.
package testutil

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"alumni/internal/models/db_models"
)

// NewDB returns a migrated in-memory SQLite database. It holds a single
// connection, so concurrent transactions are serialized the way row locks
// serialize them on Postgres.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(db_models.All()...))
	return db
}

func CreateAccount(t testing.TB, db *gorm.DB, admin bool) *db_models.Account {
	t.Helper()

	year := gofakeit.Number(1970, 2024)
	account := &db_models.Account{
		Email:          gofakeit.Email(),
		PasswordHash:   "not-a-real-hash",
		FirstName:      gofakeit.FirstName(),
		LastName:       gofakeit.LastName(),
		GraduationYear: &year,
		Major:          gofakeit.JobDescriptor(),
		Company:        gofakeit.Company(),
		JobTitle:       gofakeit.JobTitle(),
		Location:       gofakeit.City(),
		IsAdmin:        admin,
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

// EventOption tweaks a fixture event before it is stored.
type EventOption func(*db_models.Event)

func WithCapacity(n int) EventOption {
	return func(e *db_models.Event) { e.Capacity = &n }
}

func MembersOnly() EventOption {
	return func(e *db_models.Event) { e.IsMembersOnly = true }
}

func StartsAt(t time.Time) EventOption {
	return func(e *db_models.Event) { e.StartsAt = t.Unix() }
}

func WithPrice(minor int64) EventOption {
	return func(e *db_models.Event) { e.PriceMinor = minor }
}

func CreateEvent(t testing.TB, db *gorm.DB, opts ...EventOption) *db_models.Event {
	t.Helper()

	event := &db_models.Event{
		Title:       gofakeit.Company() + " reunion",
		Description: "Alumni gathering hosted by " + gofakeit.Name(),
		StartsAt:    time.Now().Add(14 * 24 * time.Hour).Unix(),
		Location:    gofakeit.City(),
		PriceMinor:  2500,
	}
	for _, opt := range opts {
		opt(event)
	}
	require.NoError(t, db.Create(event).Error)
	return event
}

// CreateMembership stores an active membership covering [start, end] given as
// stored dates.
func CreateMembership(t testing.TB, db *gorm.DB, accountID uuid.UUID, start, end int64) *db_models.Membership {
	t.Helper()

	membership := &db_models.Membership{
		AccountID:      accountID,
		MembershipType: "annual",
		StartDate:      start,
		EndDate:        end,
		AmountMinor:    10000,
		IsActive:       true,
	}
	require.NoError(t, db.Create(membership).Error)
	return membership
}

// CreateEventIntent stores a pending ledger row for an intent the account
// created to pay for event.
func CreateEventIntent(t testing.TB, db *gorm.DB, accountID uuid.UUID, event *db_models.Event, intentID string) *db_models.Transaction {
	t.Helper()

	eventID := event.ID
	return createIntent(t, db, &db_models.Transaction{
		AccountID:        accountID,
		IntentType:       db_models.IntentTypeEvent,
		EventID:          &eventID,
		AmountMinor:      event.PriceMinor,
		ProviderIntentID: intentID,
	})
}

// CreateMembershipIntent stores a pending ledger row for a membership intent.
func CreateMembershipIntent(t testing.TB, db *gorm.DB, accountID uuid.UUID, membershipType string, amountMinor int64, intentID string) *db_models.Transaction {
	t.Helper()

	return createIntent(t, db, &db_models.Transaction{
		AccountID:        accountID,
		IntentType:       db_models.IntentTypeMembership,
		MembershipType:   membershipType,
		AmountMinor:      amountMinor,
		ProviderIntentID: intentID,
	})
}

func createIntent(t testing.TB, db *gorm.DB, txn *db_models.Transaction) *db_models.Transaction {
	txn.Currency = "usd"
	txn.Status = db_models.TxnStatusPending
	txn.Provider = "fake"
	require.NoError(t, db.Create(txn).Error)
	return txn
}

func MustParseUUID(t testing.TB, s string) uuid.UUID {
	t.Helper()

	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}
