package domain

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

const (
	MinutesPerDay  = 24 * 60
	MinDuration    = 5
	MaxDuration    = MinutesPerDay
	DurationStep   = 5
	MaxTitleLength = 100

	dayLayout = "2006-01-02"
)

var (
	dayPattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

	errInvalidDay   = errors.New("invalid date")
	errInvalidClock = errors.New("invalid time")
)

// Day is a calendar day counted from 1970-01-01. It carries no time zone:
// every appointment is interpreted in naive local wall-clock time.
type Day int

// ParseDay accepts exactly YYYY-MM-DD and rejects dates that do not exist.
func ParseDay(s string) (Day, error) {
	if !dayPattern.MatchString(s) {
		return 0, errInvalidDay
	}
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return 0, errInvalidDay
	}
	return dayFromUTC(t), nil
}

// DayOf returns the wall-clock date of t in t's own location.
func DayOf(t time.Time) Day {
	return dayFromUTC(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
}

func dayFromUTC(t time.Time) Day {
	return Day(t.Unix() / (24 * 60 * 60))
}

func (d Day) Time() time.Time {
	return time.Unix(int64(d)*24*60*60, 0).UTC()
}

func (d Day) String() string {
	return d.Time().Format(dayLayout)
}

func (d Day) AddDays(n int) Day {
	return d + Day(n)
}

func (d Day) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// ParseClock parses HH:MM (24-hour, two digits each) into minutes since midnight.
func ParseClock(s string) (int, error) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, errInvalidClock
	}
	return atoi2(m[1])*60 + atoi2(m[2]), nil
}

// ParseSlotEnd is ParseClock plus "24:00", the exclusive end of a block that
// runs to midnight.
func ParseSlotEnd(s string) (int, error) {
	if s == "24:00" {
		return MinutesPerDay, nil
	}
	return ParseClock(s)
}

func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func atoi2(s string) int {
	return int(s[0]-'0')*10 + int(s[1]-'0')
}

// Interval is a half-open range [Start, End) in linear minutes,
// day*1440 + hour*60 + minute.
type Interval struct {
	Start int
	End   int
}

func NewInterval(day Day, startMinute, durationMinutes int) Interval {
	start := int(day)*MinutesPerDay + startMinute
	return Interval{Start: start, End: start + durationMinutes}
}

// Overlaps reports whether two half-open intervals intersect. Intervals that
// only touch at a boundary do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}
