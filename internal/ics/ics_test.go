package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeblock/internal/domain"
)

func calendar(events ...string) []byte {
	lines := []string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//timeblock//test//EN"}
	for _, ev := range events {
		lines = append(lines, strings.Split(strings.TrimSpace(ev), "\n")...)
	}
	lines = append(lines, "END:VCALENDAR")
	return []byte(strings.Join(lines, "\r\n") + "\r\n")
}

func mustParse(t *testing.T, body []byte, loc *time.Location) []Event {
	t.Helper()
	res, err := Parse(body, loc)
	require.NoError(t, err)
	return res.Events
}

func window(t *testing.T, from, to string, loc *time.Location) Window {
	t.Helper()
	start, err := time.ParseInLocation("2006-01-02", from, loc)
	require.NoError(t, err)
	end, err := time.ParseInLocation("2006-01-02", to, loc)
	require.NoError(t, err)
	return Window{Start: start, End: end}
}

func TestParse_Properties(t *testing.T) {
	body := calendar(`
BEGIN:VEVENT
UID:busy-1
SUMMARY:Client call
DTSTART:20240620T090000Z
DTEND:20240620T100000Z
END:VEVENT`, `
BEGIN:VEVENT
UID:free-1
SUMMARY:Reminder
DTSTART:20240620T120000Z
DTEND:20240620T123000Z
TRANSP:TRANSPARENT
END:VEVENT`, `
BEGIN:VEVENT
UID:cancel-1
DTSTART:20240620T140000Z
DTEND:20240620T150000Z
STATUS:CANCELLED
END:VEVENT`, `
BEGIN:VEVENT
UID:holiday
DTSTART;VALUE=DATE:20240621
DTEND;VALUE=DATE:20240622
END:VEVENT`, `
BEGIN:VEVENT
SUMMARY:no uid
DTSTART:20240620T090000Z
END:VEVENT`)

	res, err := Parse(body, time.UTC)
	require.NoError(t, err)
	require.Len(t, res.Events, 4)
	assert.Equal(t, 1, res.Skipped)

	busy := res.Events[0]
	assert.Equal(t, "busy-1", busy.UID)
	assert.Equal(t, "Client call", busy.Summary)
	assert.True(t, busy.Start.Equal(time.Date(2024, 6, 20, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Hour, busy.End.Sub(busy.Start))
	assert.True(t, busy.Blocking())

	assert.True(t, res.Events[1].Transparent)
	assert.False(t, res.Events[1].Blocking())
	assert.True(t, res.Events[2].Cancelled)
	assert.False(t, res.Events[2].Blocking())

	holiday := res.Events[3]
	assert.True(t, holiday.AllDay)
	assert.Equal(t, 24*time.Hour, holiday.End.Sub(holiday.Start))
}

func TestParse_EmptyBody(t *testing.T) {
	_, err := Parse([]byte("  "), time.UTC)
	require.Error(t, err)
}

func TestSlots_SplitsAtMidnight(t *testing.T) {
	events := mustParse(t, calendar(`
BEGIN:VEVENT
UID:night
SUMMARY:Night shift
DTSTART:20240620T220000Z
DTEND:20240621T020000Z
END:VEVENT`), time.UTC)

	slots, err := Slots(events, window(t, "2024-06-15", "2024-07-01", time.UTC), time.UTC)
	require.NoError(t, err)
	require.Len(t, slots, 2)

	assert.Equal(t, domain.UnavailableSlot{ExternalUID: "night", Title: "Night shift", Date: "2024-06-20", StartTime: "22:00", EndTime: "24:00"}, slots[0])
	assert.Equal(t, domain.UnavailableSlot{ExternalUID: "night", Title: "Night shift", Date: "2024-06-21", StartTime: "00:00", EndTime: "02:00"}, slots[1])
}

func TestSlots_ConvertsToLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	events := mustParse(t, calendar(`
BEGIN:VEVENT
UID:utc
DTSTART:20240620T060000Z
DTEND:20240620T070000Z
END:VEVENT`), loc)

	slots, err := Slots(events, window(t, "2024-06-15", "2024-07-01", loc), loc)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "09:00", slots[0].StartTime)
	assert.Equal(t, "10:00", slots[0].EndTime)
}

func TestSlots_RecurrenceWithExdateAndOverride(t *testing.T) {
	events := mustParse(t, calendar(`
BEGIN:VEVENT
UID:weekly
SUMMARY:Swim
DTSTART:20240603T180000Z
DTEND:20240603T190000Z
RRULE:FREQ=WEEKLY;COUNT=4
EXDATE:20240610T180000Z
END:VEVENT`, `
BEGIN:VEVENT
UID:weekly
SUMMARY:Swim (moved)
RECURRENCE-ID:20240617T180000Z
DTSTART:20240618T070000Z
DTEND:20240618T080000Z
END:VEVENT`), time.UTC)

	slots, err := Slots(events, window(t, "2024-06-01", "2024-07-01", time.UTC), time.UTC)
	require.NoError(t, err)

	got := make([]string, 0, len(slots))
	for _, s := range slots {
		got = append(got, s.Date+" "+s.StartTime+"-"+s.EndTime)
	}
	assert.Equal(t, []string{
		"2024-06-03 18:00-19:00",
		"2024-06-18 07:00-08:00",
		"2024-06-24 18:00-19:00",
	}, got)
}

func TestSlots_AllDayAndFiltering(t *testing.T) {
	events := mustParse(t, calendar(`
BEGIN:VEVENT
UID:trip
DTSTART;VALUE=DATE:20240620
DTEND;VALUE=DATE:20240622
END:VEVENT`, `
BEGIN:VEVENT
UID:free
DTSTART:20240623T090000Z
DTEND:20240623T100000Z
TRANSP:TRANSPARENT
END:VEVENT`, `
BEGIN:VEVENT
UID:outside
DTSTART:20240801T090000Z
DTEND:20240801T100000Z
END:VEVENT`), time.UTC)

	slots, err := Slots(events, window(t, "2024-06-15", "2024-07-01", time.UTC), time.UTC)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	for i, date := range []string{"2024-06-20", "2024-06-21"} {
		assert.Equal(t, date, slots[i].Date)
		assert.Equal(t, "00:00", slots[i].StartTime)
		assert.Equal(t, "24:00", slots[i].EndTime)
		_, ok := slots[i].Interval()
		assert.True(t, ok)
	}
}

func TestSlots_ClipsToWindow(t *testing.T) {
	events := mustParse(t, calendar(`
BEGIN:VEVENT
UID:long
DTSTART:20240614T200000Z
DTEND:20240615T030000Z
END:VEVENT`), time.UTC)

	slots, err := Slots(events, window(t, "2024-06-15", "2024-06-16", time.UTC), time.UTC)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "2024-06-15", slots[0].Date)
	assert.Equal(t, "00:00", slots[0].StartTime)
	assert.Equal(t, "03:00", slots[0].EndTime)
}

func TestSlots_RejectsEmptyWindow(t *testing.T) {
	w := window(t, "2024-06-15", "2024-06-15", time.UTC)
	_, err := Slots(nil, w, time.UTC)
	require.Error(t, err)
}

func TestFetcher_RevalidatesWithETag(t *testing.T) {
	body := calendar(`
BEGIN:VEVENT
UID:a
DTSTART:20240620T090000Z
DTEND:20240620T100000Z
END:VEVENT`)

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), nil)
	src := Source{ID: "work", URL: srv.URL + "/private/token.ics"}

	first, err := f.Fetch(context.Background(), src)
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, body, first.Body)

	second, err := f.Fetch(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, body, second.Body)
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetcher_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewFetcher(srv.Client(), nil).Fetch(context.Background(), Source{ID: "x", URL: srv.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://calendar.example.com/...", redactURL("https://calendar.example.com/u/secret.ics?token=abc"))
	assert.Equal(t, "(redacted)", redactURL("::not a url"))
}
