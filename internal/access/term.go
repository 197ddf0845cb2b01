package access

import (
	"strings"
	"time"

	"alumni/pkg/utils"
)

type MembershipType string

const (
	MembershipMonthly  MembershipType = "monthly"
	MembershipAnnual   MembershipType = "annual"
	MembershipLifetime MembershipType = "lifetime"
)

const (
	monthlyTermDays = 30
	lifetimeYears   = 99
)

func ParseMembershipType(s string) (MembershipType, error) {
	switch t := MembershipType(strings.ToLower(strings.TrimSpace(s))); t {
	case MembershipMonthly, MembershipAnnual, MembershipLifetime:
		return t, nil
	default:
		return "", utils.ErrInvalidMembershipType
	}
}

// ComputeEndDate returns the last entitled date of a membership starting on
// start. Year based terms keep month and day; Feb 29 becomes Feb 28 when the
// target year is not a leap year.
func ComputeEndDate(start time.Time, t MembershipType) (time.Time, error) {
	switch t {
	case MembershipMonthly:
		return start.AddDate(0, 0, monthlyTermDays), nil
	case MembershipAnnual:
		return addYears(start, 1), nil
	case MembershipLifetime:
		return addYears(start, lifetimeYears), nil
	default:
		return time.Time{}, utils.ErrInvalidMembershipType
	}
}

func addYears(start time.Time, n int) time.Time {
	y, m, d := start.Date()
	y += n
	if m == time.February && d == 29 && !isLeap(y) {
		d = 28
	}
	hh, mm, ss := start.Clock()
	return time.Date(y, m, d, hh, mm, ss, start.Nanosecond(), start.Location())
}

func isLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}
