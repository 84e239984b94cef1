package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
)

// Event is a normalized VEVENT. Times of timed events keep the zone they were
// declared in; all-day events are floating dates in the parse location.
type Event struct {
	UID     string
	Summary string

	Start  time.Time
	End    time.Time
	AllDay bool

	RRule        string
	ExDates      []time.Time
	RecurrenceID *time.Time

	Transparent bool
	Cancelled   bool
}

// Blocking reports whether the event makes its time unavailable.
func (e Event) Blocking() bool {
	return !e.Transparent && !e.Cancelled
}

type ParseResult struct {
	Events []Event
	// Skipped counts VEVENTs dropped for a missing UID or start.
	Skipped int
}

// Parse reads an iCalendar body. Floating times and all-day dates are read in
// loc (time.Local when nil).
func Parse(body []byte, loc *time.Location) (ParseResult, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return ParseResult{}, errors.New("empty calendar body")
	}
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return ParseResult{}, fmt.Errorf("parse calendar: %w", err)
	}

	var out ParseResult
	for _, ve := range cal.Events() {
		ev, err := parseEvent(ve, loc)
		if err != nil {
			out.Skipped++
			continue
		}
		out.Events = append(out.Events, ev)
	}
	return out, nil
}

func parseEvent(ve *ical.VEvent, loc *time.Location) (Event, error) {
	var ev Event

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || strings.TrimSpace(uid.Value) == "" {
		return ev, errors.New("missing UID")
	}
	ev.UID = strings.TrimSpace(uid.Value)

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Summary = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return ev, errors.New("missing DTSTART")
	}
	ev.AllDay = isDateValue(dtStart.Value, dtStart.ICalParameters)

	if ev.AllDay {
		start, err := parseTime(dtStart.Value, dtStart.ICalParameters, loc)
		if err != nil {
			return ev, err
		}
		ev.Start = start
		ev.End = start.AddDate(0, 0, 1)
		if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
			if end, err := parseTime(dtEnd.Value, dtEnd.ICalParameters, loc); err == nil && end.After(start) {
				ev.End = end
			}
		}
	} else {
		start, err := ve.GetStartAt()
		if err != nil {
			start, err = parseTime(dtStart.Value, dtStart.ICalParameters, loc)
			if err != nil {
				return ev, err
			}
		}
		end, err := ve.GetEndAt()
		if err != nil || end.Before(start) {
			end = start
		}
		ev.Start = start
		ev.End = end
		if !hasZone(dtStart.Value, dtStart.ICalParameters) {
			ev.Start = reinterpret(ev.Start, loc)
			ev.End = reinterpret(ev.End, loc)
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		ev.RRule = strings.TrimSpace(p.Value)
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseTime(part, p.ICalParameters, loc); err == nil {
				ev.ExDates = append(ev.ExDates, t)
			}
		}
	}

	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		if t, err := parseTime(p.Value, p.ICalParameters, loc); err == nil {
			ev.RecurrenceID = &t
		}
	}

	if p := ve.GetProperty("TRANSP"); p != nil {
		ev.Transparent = strings.EqualFold(strings.TrimSpace(p.Value), "TRANSPARENT")
	}
	if p := ve.GetProperty("STATUS"); p != nil {
		ev.Cancelled = strings.EqualFold(strings.TrimSpace(p.Value), "CANCELLED")
	}

	return ev, nil
}

func isDateValue(value string, params map[string][]string) bool {
	if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(value, "T")
}

func hasZone(value string, params map[string][]string) bool {
	if strings.HasSuffix(value, "Z") {
		return true
	}
	tz, ok := params["TZID"]
	return ok && len(tz) > 0 && tz[0] != ""
}

// reinterpret keeps the wall clock of t and moves it to loc.
func reinterpret(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
}

// parseTime reads DATE and DATE-TIME values, honoring a TZID parameter.
func parseTime(value string, params map[string][]string, loc *time.Location) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	if tz, ok := params["TZID"]; ok && len(tz) > 0 && tz[0] != "" {
		if l, err := time.LoadLocation(strings.Trim(tz[0], `"`)); err == nil {
			loc = l
		}
	}

	switch {
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
