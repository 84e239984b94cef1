package domain

import (
	"github.com/uptrace/bun"
)

// UnavailableSlot is an externally imposed block on one date. The engine only
// reads slots; they are written by the feed sync.
type UnavailableSlot struct {
	bun.BaseModel `bun:"table:unavailable_slots"`

	ID          int64  `bun:"id,pk,autoincrement"`
	Source      string `bun:"source,notnull"`
	ExternalUID string `bun:"external_uid"`
	Title       string `bun:"title"`
	Date        string `bun:"date,notnull"`
	StartTime   string `bun:"start_time,notnull"`
	EndTime     string `bun:"end_time,notnull"`
}

func (s UnavailableSlot) Interval() (Interval, bool) {
	day, err := ParseDay(s.Date)
	if err != nil {
		return Interval{}, false
	}
	start, err := ParseClock(s.StartTime)
	if err != nil {
		return Interval{}, false
	}
	end, err := ParseSlotEnd(s.EndTime)
	if err != nil || end <= start {
		return Interval{}, false
	}
	return NewInterval(day, start, end-start), true
}
