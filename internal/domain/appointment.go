package domain

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID              string    `bun:"id,pk"`
	Title           string    `bun:"title,notnull"`
	Date            string    `bun:"date,notnull"`
	StartTime       string    `bun:"start_time,notnull"`
	DurationMinutes int       `bun:"duration_minutes,notnull"`
	IsRecurring     bool      `bun:"is_recurring,notnull"`
	SeriesID        string    `bun:"series_id,nullzero"`
	CreatedAt       time.Time `bun:"created_at,notnull"`
	UpdatedAt       time.Time `bun:"updated_at,notnull"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}

// Interval returns the appointment's linear interval. ok is false when the
// stored date or start time does not parse.
func (a Appointment) Interval() (Interval, bool) {
	day, err := ParseDay(a.Date)
	if err != nil {
		return Interval{}, false
	}
	start, err := ParseClock(a.StartTime)
	if err != nil {
		return Interval{}, false
	}
	return NewInterval(day, start, a.DurationMinutes), true
}

// Placement is the part of an appointment a move may change.
type Placement struct {
	Date      string
	StartTime string
}

func (a Appointment) Placement() Placement {
	return Placement{Date: a.Date, StartTime: a.StartTime}
}

func (a Appointment) Candidate() Candidate {
	return Candidate{
		Title:           a.Title,
		Date:            a.Date,
		StartTime:       a.StartTime,
		DurationMinutes: a.DurationMinutes,
		IsRecurring:     a.IsRecurring,
		SeriesID:        a.SeriesID,
	}
}
