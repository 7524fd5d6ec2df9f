package dates

import "time"

type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in Location (time.Local when nil).
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Today is the calendar date of c.Now() in the clock's location.
func Today(c Clock) CalendarDate {
	return DateOf(c.Now())
}
