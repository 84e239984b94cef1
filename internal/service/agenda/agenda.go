// Package agenda derives per-day availability from the stored calendar. It
// never writes and the validation core does not depend on it.
package agenda

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"timeblock/internal/domain"
	"timeblock/internal/store"
)

// candidateTitle fills the title of the candidate used to test free starts.
const candidateTitle = "available"

type DayAvailability struct {
	Date              string
	Weekday           time.Weekday
	Appointments      []domain.Appointment
	Unavailable       []domain.UnavailableSlot
	OccupiedMinutes   int
	HasAvailableSlots bool
	FullyBooked       bool
}

// WorkDay bounds the hours FirstAvailable considers, [StartHour, EndHour).
type WorkDay struct {
	StartHour int
	EndHour   int
}

var DefaultWorkDay = WorkDay{StartHour: 9, EndHour: 20}

func (w WorkDay) Validate() error {
	if w.StartHour < 0 || w.EndHour > 24 || w.StartHour >= w.EndHour {
		return fmt.Errorf("invalid work day %02d-%02d", w.StartHour, w.EndHour)
	}
	return nil
}

// Days groups appts and slots by date for every day in [from, to].
func Days(from, to domain.Day, appts []domain.Appointment, slots []domain.UnavailableSlot) []DayAvailability {
	if to < from {
		return nil
	}

	byDate := make(map[string][]domain.Appointment)
	for _, a := range appts {
		byDate[a.Date] = append(byDate[a.Date], a)
	}
	slotsByDate := make(map[string][]domain.UnavailableSlot)
	for _, s := range slots {
		slotsByDate[s.Date] = append(slotsByDate[s.Date], s)
	}

	out := make([]DayAvailability, 0, int(to-from)+1)
	for d := from; d <= to; d++ {
		date := d.String()
		dayAppts := byDate[date]
		daySlots := slotsByDate[date]
		sort.SliceStable(dayAppts, func(i, j int) bool { return dayAppts[i].StartTime < dayAppts[j].StartTime })
		sort.SliceStable(daySlots, func(i, j int) bool { return daySlots[i].StartTime < daySlots[j].StartTime })

		occupied := occupiedMinutes(d, dayAppts, daySlots)
		out = append(out, DayAvailability{
			Date:              date,
			Weekday:           d.Weekday(),
			Appointments:      nonNil(dayAppts),
			Unavailable:       nonNil(daySlots),
			OccupiedMinutes:   occupied,
			HasAvailableSlots: occupied < domain.MinutesPerDay,
			FullyBooked:       occupied >= domain.MinutesPerDay,
		})
	}
	return out
}

// occupiedMinutes is the length of the union of the day's intervals, clipped
// to the day.
func occupiedMinutes(d domain.Day, appts []domain.Appointment, slots []domain.UnavailableSlot) int {
	dayStart := int(d) * domain.MinutesPerDay
	dayEnd := dayStart + domain.MinutesPerDay

	ivs := make([]domain.Interval, 0, len(appts)+len(slots))
	for _, a := range appts {
		if iv, ok := a.Interval(); ok {
			ivs = append(ivs, iv)
		}
	}
	for _, s := range slots {
		if iv, ok := s.Interval(); ok {
			ivs = append(ivs, iv)
		}
	}
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].Start < ivs[j].Start })

	var total, curStart, curEnd int
	open := false
	for _, iv := range ivs {
		start, end := max(iv.Start, dayStart), min(iv.End, dayEnd)
		if end <= start {
			continue
		}
		if open && start <= curEnd {
			curEnd = max(curEnd, end)
			continue
		}
		if open {
			total += curEnd - curStart
		}
		curStart, curEnd, open = start, end, true
	}
	if open {
		total += curEnd - curStart
	}
	return total
}

// Week returns the Monday and Sunday of the week containing d.
func Week(d domain.Day) (domain.Day, domain.Day) {
	offset := (int(d.Weekday()) + 6) % 7
	monday := d.AddDays(-offset)
	return monday, monday.AddDays(6)
}

// Slot is a proposed start for a new appointment.
type Slot struct {
	Date      string
	StartTime string
}

// FirstAvailable scans days in order for the first on-the-hour start inside
// the work day where an appointment of duration minutes would be accepted.
// Days before today are skipped.
func FirstAvailable(days []domain.Day, w WorkDay, duration int, appts []domain.Appointment, slots []domain.UnavailableSlot, today domain.Day) (Slot, bool) {
	if w.Validate() != nil || !domain.ValidDuration(duration) {
		return Slot{}, false
	}
	if slots == nil {
		slots = []domain.UnavailableSlot{}
	}
	set := domain.ConflictSet{Appointments: appts, Unavailable: slots}

	for _, d := range days {
		if d < today {
			continue
		}
		for hour := w.StartHour; hour < w.EndHour; hour++ {
			if hour*60+duration > w.EndHour*60 {
				break
			}
			c := domain.Candidate{
				Title:           candidateTitle,
				Date:            d.String(),
				StartTime:       domain.FormatClock(hour * 60),
				DurationMinutes: duration,
			}
			if domain.Validate(c, set, today).OK() {
				return Slot{Date: c.Date, StartTime: c.StartTime}, true
			}
		}
	}
	return Slot{}, false
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Agenda is the read model served for a date range.
type Agenda struct {
	Days         []DayAvailability
	FirstFree    Slot
	HasFirstFree bool
	WorkDay      WorkDay
	Today        string
}

type Service struct {
	repo    store.CalendarRepository
	clock   domain.Clock
	workDay WorkDay
}

func NewService(repo store.CalendarRepository, clock domain.Clock, workDay WorkDay) *Service {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if workDay.Validate() != nil {
		workDay = DefaultWorkDay
	}
	return &Service{repo: repo, clock: clock, workDay: workDay}
}

var ErrInvalidRange = errors.New("invalid agenda range")

// maxRangeDays caps a single agenda request.
const maxRangeDays = 366

// Get loads the appointments and slots in [from, to] and projects them. A
// positive duration also searches for the first free start of that length.
func (s *Service) Get(ctx context.Context, from, to string, duration int) (Agenda, error) {
	start, err := domain.ParseDay(from)
	if err != nil {
		return Agenda{}, fmt.Errorf("%w: from: %v", ErrInvalidRange, err)
	}
	end, err := domain.ParseDay(to)
	if err != nil {
		return Agenda{}, fmt.Errorf("%w: to: %v", ErrInvalidRange, err)
	}
	if end < start || int(end-start) >= maxRangeDays {
		return Agenda{}, fmt.Errorf("%w: %s..%s", ErrInvalidRange, from, to)
	}

	appts, err := s.repo.ListAppointmentsBetween(ctx, from, to)
	if err != nil {
		return Agenda{}, err
	}
	slots, err := s.repo.ListUnavailableSlotsBetween(ctx, from, to)
	if err != nil {
		return Agenda{}, err
	}

	today := s.clock.Today()
	out := Agenda{
		Days:    Days(start, end, appts, slots),
		WorkDay: s.workDay,
		Today:   today.String(),
	}
	if duration > 0 {
		days := make([]domain.Day, 0, int(end-start)+1)
		for d := start; d <= end; d++ {
			days = append(days, d)
		}
		out.FirstFree, out.HasFirstFree = FirstAvailable(days, s.workDay, duration, appts, slots, today)
	}
	return out, nil
}
