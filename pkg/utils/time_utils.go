package utils

import "time"

const dateLayout = "2006-01-02"

// DateOf returns the civil date of t as seen in loc, as midnight UTC.
// Membership dates are stored as the unix seconds of that instant.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TodayUnix is the stored form of today's date in loc.
func TodayUnix(now time.Time, loc *time.Location) int64 {
	return DateOf(now, loc).Unix()
}

func FromDateUnix(d int64) time.Time {
	return time.Unix(d, 0).UTC()
}

func FormatDate(d int64) string {
	return FromDateUnix(d).Format(dateLayout)
}

func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

func FormatRFC3339(unix int64, loc *time.Location) string {
	if unix == 0 {
		return ""
	}
	t := time.Unix(unix, 0)
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(time.RFC3339)
}
