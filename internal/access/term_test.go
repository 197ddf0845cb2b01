package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alumni/pkg/utils"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeEndDate(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		typ   MembershipType
		want  time.Time
	}{
		{"monthly is thirty days", date(2024, 1, 15), MembershipMonthly, date(2024, 2, 14)},
		{"annual keeps month and day", date(2024, 1, 15), MembershipAnnual, date(2025, 1, 15)},
		{"lifetime is ninety nine years", date(2024, 1, 15), MembershipLifetime, date(2123, 1, 15)},
		{"monthly crosses leap day", date(2024, 2, 15), MembershipMonthly, date(2024, 3, 16)},
		{"annual from leap day clamps", date(2024, 2, 29), MembershipAnnual, date(2025, 2, 28)},
		{"lifetime from leap day clamps", date(2024, 2, 29), MembershipLifetime, date(2123, 2, 28)},
		{"late century leap day clamps", date(2096, 2, 29), MembershipAnnual, date(2097, 2, 28)},
		{"twentieth century leap day clamps", date(1996, 2, 29), MembershipAnnual, date(1997, 2, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeEndDate(tt.start, tt.typ)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestComputeEndDate_LeapDayKeptWhenTargetIsLeap(t *testing.T) {
	got, err := ComputeEndDate(date(2000, 2, 29), MembershipLifetime)
	require.NoError(t, err)
	// 2099 is not a leap year.
	assert.Equal(t, date(2099, 2, 28), got)

	got = addYears(date(2096, 2, 29), 4)
	assert.Equal(t, date(2100, 2, 28), got)

	got = addYears(date(1996, 2, 29), 4)
	assert.Equal(t, date(2000, 2, 29), got)
}

func TestComputeEndDate_UnknownType(t *testing.T) {
	_, err := ComputeEndDate(date(2024, 1, 15), MembershipType("weekly"))
	require.ErrorIs(t, err, utils.ErrInvalidMembershipType)
}

func TestParseMembershipType(t *testing.T) {
	got, err := ParseMembershipType(" Annual ")
	require.NoError(t, err)
	assert.Equal(t, MembershipAnnual, got)

	_, err = ParseMembershipType("")
	require.ErrorIs(t, err, utils.ErrInvalidMembershipType)

	_, err = ParseMembershipType("quarterly")
	require.ErrorIs(t, err, utils.ErrInvalidMembershipType)
}
