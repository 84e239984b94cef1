package domain

import "time"

// Clock supplies the date used by the past-date check.
type Clock interface {
	Today() Day
}

type ClockFunc func() Day

func (f ClockFunc) Today() Day {
	return f()
}

// SystemClock reads the wall clock in Location (time.Local when nil).
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Today() Day {
	now := time.Now()
	if c.Location != nil {
		now = now.In(c.Location)
	}
	return DayOf(now)
}
