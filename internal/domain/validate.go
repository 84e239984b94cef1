package domain

import (
	"strings"
	"unicode/utf8"
)

// Reason identifies why a candidate was rejected. The set is closed; each
// value belongs to exactly one step of the validation pipeline.
type Reason string

const (
	ReasonEmptyTitle      Reason = "EmptyTitle"
	ReasonTitleTooLong    Reason = "TitleTooLong"
	ReasonInvalidDate     Reason = "InvalidDate"
	ReasonPastDate        Reason = "PastDate"
	ReasonInvalidTime     Reason = "InvalidTime"
	ReasonInvalidDuration Reason = "InvalidDuration"
	ReasonEventOverlap    Reason = "EventOverlap"
	ReasonSlotUnavailable Reason = "SlotUnavailable"
)

// Reasons lists every reason in pipeline order.
var Reasons = []Reason{
	ReasonEmptyTitle,
	ReasonTitleTooLong,
	ReasonInvalidDate,
	ReasonPastDate,
	ReasonInvalidTime,
	ReasonInvalidDuration,
	ReasonEventOverlap,
	ReasonSlotUnavailable,
}

// IsConflict reports whether the reason comes from the placement checks
// rather than from a malformed field.
func (r Reason) IsConflict() bool {
	return r == ReasonEventOverlap || r == ReasonSlotUnavailable
}

// Candidate is a proposed or edited appointment.
type Candidate struct {
	Title           string
	Date            string
	StartTime       string
	DurationMinutes int
	IsRecurring     bool
	SeriesID        string
}

// ConflictSet is the snapshot a candidate is checked against.
type ConflictSet struct {
	Appointments []Appointment
	// ExcludeID names the appointment being edited so it does not collide
	// with its own prior placement.
	ExcludeID string
	// Unavailable is consulted only when non-nil. Callers that care about
	// external bookings must supply it.
	Unavailable []UnavailableSlot
}

// Verdict is accept (empty Reason) or reject with exactly one reason.
type Verdict struct {
	Reason Reason
}

func (v Verdict) OK() bool {
	return v.Reason == ""
}

// Err returns nil for an accepted verdict and a *RejectedError otherwise.
func (v Verdict) Err() error {
	if v.OK() {
		return nil
	}
	return &RejectedError{Reason: v.Reason}
}

type RejectedError struct {
	Reason Reason
	// Date is set when a later occurrence of a series was the one rejected.
	Date string
}

func (e *RejectedError) Error() string {
	if e.Date != "" {
		return "appointment rejected: " + string(e.Reason) + " on " + e.Date
	}
	return "appointment rejected: " + string(e.Reason)
}

// NormalizeTitle returns the title as it is persisted.
func NormalizeTitle(title string) string {
	return strings.TrimSpace(title)
}

// Validate runs the ordered pipeline; the first failing step decides the
// verdict.
func Validate(c Candidate, set ConflictSet, today Day) Verdict {
	title := NormalizeTitle(c.Title)
	if title == "" {
		return Verdict{Reason: ReasonEmptyTitle}
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return Verdict{Reason: ReasonTitleTooLong}
	}

	day, err := ParseDay(c.Date)
	if err != nil {
		return Verdict{Reason: ReasonInvalidDate}
	}
	if day < today {
		return Verdict{Reason: ReasonPastDate}
	}

	start, err := ParseClock(c.StartTime)
	if err != nil {
		return Verdict{Reason: ReasonInvalidTime}
	}

	if !ValidDuration(c.DurationMinutes) {
		return Verdict{Reason: ReasonInvalidDuration}
	}

	iv := NewInterval(day, start, c.DurationMinutes)

	for _, a := range set.Appointments {
		if set.ExcludeID != "" && a.ID == set.ExcludeID {
			continue
		}
		if a.Date != c.Date {
			continue
		}
		other, ok := a.Interval()
		if ok && Overlaps(iv, other) {
			return Verdict{Reason: ReasonEventOverlap}
		}
	}

	if set.Unavailable != nil {
		for _, s := range set.Unavailable {
			if s.Date != c.Date {
				continue
			}
			other, ok := s.Interval()
			if ok && Overlaps(iv, other) {
				return Verdict{Reason: ReasonSlotUnavailable}
			}
		}
	}

	return Verdict{}
}

func ValidDuration(minutes int) bool {
	return minutes >= MinDuration && minutes <= MaxDuration && minutes%DurationStep == 0
}
