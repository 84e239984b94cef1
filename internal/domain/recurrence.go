package domain

import (
	"errors"
	"fmt"
)

// WeeklyOccurrences is the fixed horizon of a weekly series.
const WeeklyOccurrences = 12

// IDGenerator supplies globally unique opaque identifiers.
type IDGenerator interface {
	NewID() (string, error)
}

// ExpandWeekly materializes a weekly series from a validated template.
// Occurrence k is dated template.Date + 7k days; all occurrences share one
// fresh series id. Expansion does not validate the occurrences.
func ExpandWeekly(template Appointment, ids IDGenerator) ([]Appointment, error) {
	first, err := ParseDay(template.Date)
	if err != nil {
		return nil, fmt.Errorf("expand series: %w", err)
	}

	seriesID, err := ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("expand series: series id: %w", err)
	}

	out := make([]Appointment, 0, WeeklyOccurrences)
	for k := 0; k < WeeklyOccurrences; k++ {
		id, err := ids.NewID()
		if err != nil {
			return nil, fmt.Errorf("expand series: occurrence %d id: %w", k, err)
		}
		out = append(out, Appointment{
			ID:              id,
			Title:           template.Title,
			Date:            first.AddDays(7 * k).String(),
			StartTime:       template.StartTime,
			DurationMinutes: template.DurationMinutes,
			IsRecurring:     true,
			SeriesID:        seriesID,
		})
	}
	return out, nil
}

// SeriesPolicy decides which occurrences of a new series are validated
// before the batch is written.
type SeriesPolicy string

const (
	// SeriesPolicyFirstOccurrence validates occurrence 0 only; later
	// occurrences are written even if they collide.
	SeriesPolicyFirstOccurrence SeriesPolicy = "first"
	// SeriesPolicyEveryOccurrence rejects the series if any occurrence fails.
	SeriesPolicyEveryOccurrence SeriesPolicy = "every"
)

var errUnknownSeriesPolicy = errors.New("unknown series validation policy")

func ParseSeriesPolicy(s string) (SeriesPolicy, error) {
	switch SeriesPolicy(s) {
	case "", SeriesPolicyFirstOccurrence:
		return SeriesPolicyFirstOccurrence, nil
	case SeriesPolicyEveryOccurrence:
		return SeriesPolicyEveryOccurrence, nil
	default:
		return "", fmt.Errorf("%w: %q", errUnknownSeriesPolicy, s)
	}
}

// Occurrences returns the part of batch that must pass validation.
func (p SeriesPolicy) Occurrences(batch []Appointment) []Appointment {
	if len(batch) == 0 {
		return nil
	}
	if p == SeriesPolicyEveryOccurrence {
		return batch
	}
	return batch[:1]
}

// RemoveSeries returns appts without the members of seriesID.
func RemoveSeries(appts []Appointment, seriesID string) []Appointment {
	out := make([]Appointment, 0, len(appts))
	for _, a := range appts {
		if seriesID != "" && a.SeriesID == seriesID {
			continue
		}
		out = append(out, a)
	}
	return out
}
