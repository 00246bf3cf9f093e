package ics

import (
	"strings"
	"testing"
	"time"
)

var testSource = Source{ID: "work", Name: "Work", URL: "https://example.com/work.ics"}

func fixture(lines ...string) []byte {
	return []byte(strings.Join(lines, "\r\n") + "\r\n")
}

func TestParse(t *testing.T) {
	body := fixture(
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:ev-timed",
		"DTSTART:20260831T090000Z",
		"DTEND:20260831T100000Z",
		"SUMMARY:Team standup",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:ev-allday",
		"DTSTART;VALUE=DATE:20260902",
		"DTEND;VALUE=DATE:20260903",
		"SUMMARY:Conference",
		"END:VEVENT",
		"END:VCALENDAR",
	)

	events, err := Parse(testSource, body)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	timed := events[0]
	if timed.UID != "ev-timed" || timed.Summary != "Team standup" {
		t.Errorf("timed event = %+v", timed)
	}
	if timed.AllDay {
		t.Error("timed event flagged all-day")
	}
	if !timed.Start.Equal(time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("timed start = %v", timed.Start)
	}

	allDay := events[1]
	if !allDay.AllDay {
		t.Error("date-only DTSTART must be detected as all-day")
	}
}

func TestParseSkipsMalformedVEvent(t *testing.T) {
	body := fixture(
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"DTSTART:20260831T090000Z",
		"SUMMARY:No UID here",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:ev-good",
		"DTSTART:20260901T100000Z",
		"DTEND:20260901T110000Z",
		"SUMMARY:Survivor",
		"END:VEVENT",
		"END:VCALENDAR",
	)

	events, err := Parse(testSource, body)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].UID != "ev-good" {
		t.Errorf("expected only the well-formed event, got %+v", events)
	}
}

func TestParseEmptyBody(t *testing.T) {
	if _, err := Parse(testSource, nil); err == nil {
		t.Error("empty body must be an error")
	}
}

func expandWindow() ExpandConfig {
	return ExpandConfig{
		DisplayLocation: time.UTC,
		RangeStart:      time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		RangeEnd:        time.Date(2026, 9, 6, 23, 59, 59, 0, time.UTC),
	}
}

func TestExpandSingleEvent(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		want  int
	}{
		{"inside window", time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC), 1},
		{"before window", time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC), 0},
		{"after window", time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := ParsedEvent{
				Source: testSource, UID: "ev", Summary: "Standup",
				Start: tt.start, End: tt.start.Add(time.Hour),
			}
			out, err := Expand([]ParsedEvent{ev}, expandWindow())
			if err != nil {
				t.Fatal(err)
			}
			if len(out) != tt.want {
				t.Errorf("got %d occurrences, want %d", len(out), tt.want)
			}
		})
	}
}

func TestExpandWeeklyRecurrence(t *testing.T) {
	// Started the Monday before the window; exactly one instance falls in.
	ev := ParsedEvent{
		Source: testSource, UID: "weekly", Summary: "Standup",
		Start:    time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC),
		End:      time.Date(2026, 8, 24, 9, 30, 0, 0, time.UTC),
		RawRRule: "FREQ=WEEKLY",
	}

	out, err := Expand([]ParsedEvent{ev}, expandWindow())
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d occurrences, want 1", len(out))
	}

	occ := out[0]
	if !occ.Start.Equal(time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("occurrence start = %v", occ.Start)
	}
	if occ.End.Sub(occ.Start) != 30*time.Minute {
		t.Errorf("occurrence duration = %v, want original 30m", occ.End.Sub(occ.Start))
	}
	if occ.UID == "weekly" {
		t.Error("recurring occurrence UID must be instance-qualified")
	}
	if !strings.HasPrefix(occ.UID, "weekly/") {
		t.Errorf("occurrence UID = %q", occ.UID)
	}
}

func TestExpandDailyRecurrenceWithExDate(t *testing.T) {
	ev := ParsedEvent{
		Source: testSource, UID: "daily", Summary: "Workout",
		Start:    time.Date(2026, 8, 31, 7, 0, 0, 0, time.UTC),
		End:      time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC),
		RawRRule: "FREQ=DAILY",
		ExDates:  []time.Time{time.Date(2026, 9, 2, 7, 0, 0, 0, time.UTC)},
	}

	out, err := Expand([]ParsedEvent{ev}, expandWindow())
	if err != nil {
		t.Fatal(err)
	}
	// 7 days in the window minus the excluded Wednesday.
	if len(out) != 6 {
		t.Fatalf("got %d occurrences, want 6", len(out))
	}
	for _, occ := range out {
		if occ.Start.Day() == 2 && occ.Start.Month() == 9 {
			t.Error("EXDATE occurrence must be excluded")
		}
	}
}

func TestExpandAllDaySnapsToMidnight(t *testing.T) {
	ev := ParsedEvent{
		Source: testSource, UID: "allday", Summary: "Conference",
		Start:  time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC),
		AllDay: true,
	}

	out, err := Expand([]ParsedEvent{ev}, expandWindow())
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d occurrences, want 1", len(out))
	}
	occ := out[0]
	if !occ.AllDay {
		t.Error("all-day flag lost")
	}
	if occ.Start.Hour() != 0 || occ.Start.Minute() != 0 {
		t.Errorf("all-day start = %v, want midnight", occ.Start)
	}
}

func TestExpandRejectsInvertedRange(t *testing.T) {
	cfg := expandWindow()
	cfg.RangeStart, cfg.RangeEnd = cfg.RangeEnd, cfg.RangeStart
	if _, err := Expand(nil, cfg); err == nil {
		t.Error("inverted range must be an error")
	}
}

func TestRedactURL(t *testing.T) {
	got := redactURL("https://example.com/private/cal.ics?token=abcd")
	if strings.Contains(got, "token") || strings.Contains(got, "private") {
		t.Errorf("redaction leaked secrets: %q", got)
	}
	if !strings.HasPrefix(got, "https://example.com") {
		t.Errorf("redaction should keep the host: %q", got)
	}
}
