package slots

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"timeblock/internal/domain"
	"timeblock/internal/ics"
	"timeblock/internal/store/sqldb"
)

type fakeFetcher struct {
	bodies map[string]string
	errs   map[string]error
}

func (f *fakeFetcher) Fetch(ctx context.Context, src ics.Source) (ics.FetchResult, error) {
	if err := f.errs[src.ID]; err != nil {
		return ics.FetchResult{}, err
	}
	return ics.FetchResult{Source: src, Body: []byte(f.bodies[src.ID])}, nil
}

func feed(events ...string) string {
	lines := []string{"BEGIN:VCALENDAR", "VERSION:2.0"}
	for _, ev := range events {
		lines = append(lines, strings.Split(strings.TrimSpace(ev), "\n")...)
	}
	lines = append(lines, "END:VCALENDAR")
	return strings.Join(lines, "\r\n") + "\r\n"
}

func newRepo(t *testing.T) *sqldb.CalendarRepo {
	t.Helper()
	db, err := sqldb.Open("sqlite::memory:", sqldb.PoolConfig{})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() {
		_ = sqldb.Close(db)
	})
	if err := sqldb.Migrate(context.Background(), db); err != nil {
		t.Fatalf("Migrate error: %v", err)
	}
	return sqldb.NewCalendarRepo(db)
}

func fixedToday(t *testing.T, date string) domain.Clock {
	t.Helper()
	d, err := domain.ParseDay(date)
	if err != nil {
		t.Fatalf("ParseDay(%q) error: %v", date, err)
	}
	return domain.ClockFunc(func() domain.Day { return d })
}

func TestSyncer_Window(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	s := NewSyncer(nil, nil, fixedToday(t, "2024-06-15"), Config{Location: loc}, nil)

	w := s.Window()
	if got := w.Start.Format(time.RFC3339); got != "2024-06-15T00:00:00-05:00" {
		t.Fatalf("window start = %s", got)
	}
	if days := int(w.End.Sub(w.Start).Hours() / 24); days != DefaultHorizonDays {
		t.Fatalf("window days = %d, want %d", days, DefaultHorizonDays)
	}
}

func TestSyncer_SyncReplacesPerSourceAndKeepsFailedSource(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	fetcher := &fakeFetcher{
		bodies: map[string]string{
			"work": feed(`
BEGIN:VEVENT
UID:w1
SUMMARY:Standup
DTSTART:20240617T090000Z
DTEND:20240617T093000Z
RRULE:FREQ=DAILY;COUNT=3
END:VEVENT`),
			"gym": feed(`
BEGIN:VEVENT
UID:g1
DTSTART:20240618T180000Z
DTEND:20240618T190000Z
END:VEVENT`),
		},
		errs: map[string]error{},
	}
	cfg := Config{
		Sources:  []ics.Source{{ID: "work", URL: "https://example.com/work.ics"}, {ID: "gym", URL: "https://example.com/gym.ics"}},
		Location: time.UTC,
	}
	s := NewSyncer(repo, fetcher, fixedToday(t, "2024-06-15"), cfg, nil)

	results, err := s.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync error: %v", err)
	}
	if len(results) != 2 || results[0].Slots != 3 || results[1].Slots != 1 {
		t.Fatalf("results = %+v", results)
	}

	boom := errors.New("feed down")
	fetcher.errs["gym"] = boom
	fetcher.bodies["work"] = feed()

	results, err = s.Sync(ctx)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if results[0].Err != nil || results[0].Slots != 0 {
		t.Fatalf("work result = %+v", results[0])
	}

	slots, err := repo.ListUnavailableSlotsBetween(ctx, "2024-06-01", "2024-06-30")
	if err != nil {
		t.Fatalf("ListUnavailableSlotsBetween error: %v", err)
	}
	if len(slots) != 1 || slots[0].Source != "gym" || slots[0].StartTime != "18:00" || slots[0].EndTime != "19:00" {
		t.Fatalf("slots = %+v", slots)
	}
}

func TestSyncer_SchedulesRejectBadSpec(t *testing.T) {
	s := NewSyncer(nil, &fakeFetcher{}, fixedToday(t, "2024-06-15"), Config{}, nil)

	if _, err := s.Schedule(context.Background(), "not a cron spec"); err == nil {
		t.Fatalf("expected error for invalid spec")
	}
	c, err := s.Schedule(context.Background(), "*/15 * * * *")
	if err != nil {
		t.Fatalf("Schedule error: %v", err)
	}
	if n := len(c.Entries()); n != 1 {
		t.Fatalf("entries = %d, want 1", n)
	}
}
