package services

import (
	"time"

	"alumni/pkg/utils"
)

// Clock is the time source shared by the services. Loc decides which
// calendar day "today" is for membership dates.
type Clock struct {
	Now func() time.Time
	Loc *time.Location
}

func NewClock(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{Now: time.Now, Loc: loc}
}

func (c *Clock) Today() int64 {
	return utils.TodayUnix(c.Now(), c.Loc)
}
