package domain

import (
	"errors"
	"strconv"
	"testing"
)

type sequenceIDs struct {
	prefix string
	n      int
	failAt int
}

func (s *sequenceIDs) NewID() (string, error) {
	s.n++
	if s.failAt > 0 && s.n == s.failAt {
		return "", errors.New("id source exhausted")
	}
	return s.prefix + strconv.Itoa(s.n), nil
}

func TestExpandWeekly_TwelveWeeklyOccurrences(t *testing.T) {
	template := Appointment{
		ID:              "template",
		Title:           "Piano lesson",
		Date:            "2024-01-01",
		StartTime:       "17:30",
		DurationMinutes: 45,
		IsRecurring:     true,
	}

	occs, err := ExpandWeekly(template, &sequenceIDs{prefix: "id-"})
	if err != nil {
		t.Fatalf("ExpandWeekly error: %v", err)
	}
	if len(occs) != WeeklyOccurrences {
		t.Fatalf("len(occs) = %d, want %d", len(occs), WeeklyOccurrences)
	}

	wantDates := []string{
		"2024-01-01", "2024-01-08", "2024-01-15", "2024-01-22",
		"2024-01-29", "2024-02-05", "2024-02-12", "2024-02-19",
		"2024-02-26", "2024-03-04", "2024-03-11", "2024-03-18",
	}

	seriesID := occs[0].SeriesID
	if seriesID == "" {
		t.Fatalf("series id is empty")
	}
	seen := make(map[string]struct{}, len(occs))
	for i, o := range occs {
		if o.Date != wantDates[i] {
			t.Fatalf("occs[%d].Date = %q, want %q", i, o.Date, wantDates[i])
		}
		if o.SeriesID != seriesID {
			t.Fatalf("occs[%d].SeriesID = %q, want %q", i, o.SeriesID, seriesID)
		}
		if o.Title != template.Title || o.StartTime != template.StartTime || o.DurationMinutes != template.DurationMinutes {
			t.Fatalf("occs[%d] fields not copied from template: %+v", i, o)
		}
		if !o.IsRecurring {
			t.Fatalf("occs[%d].IsRecurring = false, want true", i)
		}
		if o.ID == seriesID || o.ID == template.ID {
			t.Fatalf("occs[%d].ID = %q reuses another identifier", i, o.ID)
		}
		if _, dup := seen[o.ID]; dup {
			t.Fatalf("duplicate occurrence id %q", o.ID)
		}
		seen[o.ID] = struct{}{}
	}
}

func TestExpandWeekly_DistinctSeriesPerCall(t *testing.T) {
	ids := &sequenceIDs{prefix: "x"}
	template := Appointment{Title: "t", Date: "2026-03-02", StartTime: "09:00", DurationMinutes: 60}

	a, err := ExpandWeekly(template, ids)
	if err != nil {
		t.Fatalf("ExpandWeekly error: %v", err)
	}
	b, err := ExpandWeekly(template, ids)
	if err != nil {
		t.Fatalf("ExpandWeekly error: %v", err)
	}
	if a[0].SeriesID == b[0].SeriesID {
		t.Fatalf("series ids collide: %q", a[0].SeriesID)
	}
}

func TestExpandWeekly_CrossesYearBoundary(t *testing.T) {
	occs, err := ExpandWeekly(Appointment{Title: "t", Date: "2025-12-29", StartTime: "08:00", DurationMinutes: 30}, &sequenceIDs{})
	if err != nil {
		t.Fatalf("ExpandWeekly error: %v", err)
	}
	if occs[1].Date != "2026-01-05" {
		t.Fatalf("occs[1].Date = %q, want %q", occs[1].Date, "2026-01-05")
	}
	if occs[11].Date != "2026-03-16" {
		t.Fatalf("occs[11].Date = %q, want %q", occs[11].Date, "2026-03-16")
	}
}

func TestExpandWeekly_Errors(t *testing.T) {
	tests := []struct {
		name     string
		template Appointment
		ids      *sequenceIDs
	}{
		{
			name:     "invalid template date",
			template: Appointment{Title: "t", Date: "2024-02-30", StartTime: "09:00", DurationMinutes: 60},
			ids:      &sequenceIDs{},
		},
		{
			name:     "series id failure",
			template: Appointment{Title: "t", Date: "2024-02-01", StartTime: "09:00", DurationMinutes: 60},
			ids:      &sequenceIDs{failAt: 1},
		},
		{
			name:     "occurrence id failure",
			template: Appointment{Title: "t", Date: "2024-02-01", StartTime: "09:00", DurationMinutes: 60},
			ids:      &sequenceIDs{failAt: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			occs, err := ExpandWeekly(tt.template, tt.ids)
			if err == nil {
				t.Fatalf("expected error")
			}
			if occs != nil {
				t.Fatalf("occs = %v, want nil on error", occs)
			}
		})
	}
}

func TestSeriesPolicy_Occurrences(t *testing.T) {
	batch, err := ExpandWeekly(Appointment{Title: "t", Date: "2026-03-02", StartTime: "09:00", DurationMinutes: 60}, &sequenceIDs{})
	if err != nil {
		t.Fatalf("ExpandWeekly error: %v", err)
	}

	if got := SeriesPolicyFirstOccurrence.Occurrences(batch); len(got) != 1 || got[0].ID != batch[0].ID {
		t.Fatalf("first policy occurrences = %v, want only occurrence 0", got)
	}
	if got := SeriesPolicyEveryOccurrence.Occurrences(batch); len(got) != WeeklyOccurrences {
		t.Fatalf("every policy occurrences = %d, want %d", len(got), WeeklyOccurrences)
	}
	if got := SeriesPolicyEveryOccurrence.Occurrences(nil); got != nil {
		t.Fatalf("occurrences of empty batch = %v, want nil", got)
	}
}

func TestParseSeriesPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    SeriesPolicy
		wantErr bool
	}{
		{in: "", want: SeriesPolicyFirstOccurrence},
		{in: "first", want: SeriesPolicyFirstOccurrence},
		{in: "every", want: SeriesPolicyEveryOccurrence},
		{in: "sometimes", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseSeriesPolicy(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseSeriesPolicy(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseSeriesPolicy(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseSeriesPolicy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRemoveSeries_RemovesOnlyThatSeries(t *testing.T) {
	ids := &sequenceIDs{prefix: "a"}
	first, err := ExpandWeekly(Appointment{Title: "one", Date: "2026-03-02", StartTime: "09:00", DurationMinutes: 60}, ids)
	if err != nil {
		t.Fatalf("ExpandWeekly error: %v", err)
	}
	second, err := ExpandWeekly(Appointment{Title: "two", Date: "2026-03-03", StartTime: "09:00", DurationMinutes: 60}, ids)
	if err != nil {
		t.Fatalf("ExpandWeekly error: %v", err)
	}
	oneOff := Appointment{ID: "solo", Title: "solo", Date: "2026-03-04", StartTime: "10:00", DurationMinutes: 30}

	all := append(append(append([]Appointment{}, first...), second...), oneOff)

	out := RemoveSeries(all, first[0].SeriesID)
	if len(out) != len(all)-WeeklyOccurrences {
		t.Fatalf("len(out) = %d, want %d", len(out), len(all)-WeeklyOccurrences)
	}
	for _, a := range out {
		if a.SeriesID == first[0].SeriesID {
			t.Fatalf("appointment %q of removed series survived", a.ID)
		}
	}

	if got := RemoveSeries(all, ""); len(got) != len(all) {
		t.Fatalf("empty series id removed %d appointments", len(all)-len(got))
	}
}
