package ics

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"timeblock/internal/domain"
)

// maxOccurrencesPerEvent caps the expansion of a single recurring event.
const maxOccurrencesPerEvent = 5000

// Window is the half-open range [Start, End) feeds are expanded over.
type Window struct {
	Start time.Time
	End   time.Time
}

type occurrence struct {
	event Event
	start time.Time
	end   time.Time
}

// Slots expands events over w and converts every blocking occurrence into
// per-date unavailable slots in loc. An occurrence crossing midnight is split,
// and the part before midnight ends at 24:00. Starts are floored and ends
// ceiled to the minute.
func Slots(events []Event, w Window, loc *time.Location) ([]domain.UnavailableSlot, error) {
	if !w.End.After(w.Start) {
		return nil, errors.New("expand: window end must be after start")
	}
	if loc == nil {
		loc = time.Local
	}

	base := make(map[string][]Event)
	overrides := make(map[string][]Event)
	var order []string
	for _, ev := range events {
		if ev.RecurrenceID != nil {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
			continue
		}
		if _, ok := base[ev.UID]; !ok {
			order = append(order, ev.UID)
		}
		base[ev.UID] = append(base[ev.UID], ev)
	}

	var occs []occurrence
	for _, uid := range order {
		for _, ev := range base[uid] {
			got, err := expandEvent(ev, overrides[uid], w)
			if err != nil {
				return nil, fmt.Errorf("expand %s: %w", uid, err)
			}
			occs = append(occs, got...)
		}
	}

	out := make([]domain.UnavailableSlot, 0, len(occs))
	for _, o := range occs {
		if !o.event.Blocking() {
			continue
		}
		start, end := o.start, o.end
		if start.Before(w.Start) {
			start = w.Start
		}
		if end.After(w.End) {
			end = w.End
		}
		if !end.After(start) {
			continue
		}
		out = append(out, split(o.event, start.In(loc), end.In(loc))...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func expandEvent(ev Event, overrides []Event, w Window) ([]occurrence, error) {
	dur := ev.End.Sub(ev.Start)

	if ev.RRule == "" {
		if !overlaps(ev.Start, ev.End, w) {
			return nil, nil
		}
		if o, ok := findOverride(overrides, ev.Start); ok {
			return []occurrence{{event: o, start: o.Start, end: o.End}}, nil
		}
		return []occurrence{{event: ev, start: ev.Start, end: ev.End}}, nil
	}

	r, err := rrule.StrToRRule(ev.RRule)
	if err != nil {
		return nil, fmt.Errorf("rrule %q: %w", ev.RRule, err)
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	from := w.Start.Add(-dur).In(ev.Start.Location())
	to := w.End.In(ev.Start.Location())
	starts := set.Between(from, to, true)
	if len(starts) > maxOccurrencesPerEvent {
		starts = starts[:maxOccurrencesPerEvent]
	}

	out := make([]occurrence, 0, len(starts))
	for _, s := range starts {
		if o, ok := findOverride(overrides, s); ok {
			if overlaps(o.Start, o.End, w) {
				out = append(out, occurrence{event: o, start: o.Start, end: o.End})
			}
			continue
		}
		e := s.Add(dur)
		if ev.AllDay {
			e = s.AddDate(0, 0, int(dur.Hours()+12)/24)
		}
		if overlaps(s, e, w) {
			out = append(out, occurrence{event: ev, start: s, end: e})
		}
	}
	return out, nil
}

func findOverride(overrides []Event, start time.Time) (Event, bool) {
	for _, o := range overrides {
		if o.RecurrenceID != nil && o.RecurrenceID.Equal(start) {
			return o, true
		}
	}
	return Event{}, false
}

func overlaps(start, end time.Time, w Window) bool {
	if !end.After(start) {
		return false
	}
	return start.Before(w.End) && end.After(w.Start)
}

// split cuts [start, end) at local midnights.
func split(ev Event, start, end time.Time) []domain.UnavailableSlot {
	start = start.Truncate(time.Minute)
	if t := end.Truncate(time.Minute); t.Before(end) {
		end = t.Add(time.Minute)
	}

	var out []domain.UnavailableSlot
	for cur := start; cur.Before(end); {
		loc := cur.Location()
		nextMidnight := time.Date(cur.Year(), cur.Month(), cur.Day()+1, 0, 0, 0, 0, loc)
		segEnd := end
		toMidnight := !end.Before(nextMidnight)
		if toMidnight {
			segEnd = nextMidnight
		}

		endClock := "24:00"
		if !toMidnight {
			endClock = domain.FormatClock(segEnd.Hour()*60 + segEnd.Minute())
		}
		startClock := domain.FormatClock(cur.Hour()*60 + cur.Minute())
		if startClock != endClock {
			out = append(out, domain.UnavailableSlot{
				ExternalUID: ev.UID,
				Title:       ev.Summary,
				Date:        domain.DayOf(cur).String(),
				StartTime:   startClock,
				EndTime:     endClock,
			})
		}
		cur = segEnd
	}
	return out
}
