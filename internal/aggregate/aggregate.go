package aggregate

import (
	"fmt"
	"sort"
	"time"

	"weeklybrief/internal/model"
)

// Warning records one recoverable problem encountered while aggregating.
// A warning never aborts aggregation; the affected calendar is skipped.
type Warning struct {
	SourceID string
	Reason   string
}

func (w Warning) String() string {
	return fmt.Sprintf("calendar %s skipped: %s", w.SourceID, w.Reason)
}

// NextWeekWindow returns the inclusive bounds of the upcoming week in loc:
// next Monday 00:00:00 through the following Sunday 23:59:59. A run started
// on a Monday targets the week after, never the current day.
func NextWeekWindow(now time.Time, loc *time.Location) (time.Time, time.Time) {
	now = now.In(loc)

	daysUntilMonday := (int(time.Monday) - int(now.Weekday()) + 7) % 7
	if daysUntilMonday == 0 {
		daysUntilMonday = 7
	}

	monday := now.AddDate(0, 0, daysUntilMonday)
	start := time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, loc)
	sunday := start.AddDate(0, 0, 6)
	end := time.Date(sunday.Year(), sunday.Month(), sunday.Day(), 23, 59, 59, 0, loc)

	return start, end
}

// Aggregate merges per-calendar raw event lists into one deduplicated,
// chronologically ordered AggregatedWeek.
//
//   - Events starting outside [windowStart, windowEnd] are dropped; the
//     bounds are inclusive on both ends. Upstream range filtering is only
//     approximate, so this re-filter is always applied.
//   - Duplicates are detected by (SourceID, UID); the first occurrence wins.
//   - A calendar whose list contains a malformed event (missing UID or
//     zero start) is skipped entirely and recorded as a Warning.
//
// Pure function: the inputs are never mutated, and a fixed input always
// yields an identical result, including order.
func Aggregate(bySource map[string][]model.Event, windowStart, windowEnd time.Time) (model.AggregatedWeek, []Warning) {
	week := model.AggregatedWeek{
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
	}

	var warnings []Warning

	// Map iteration order is random; process calendars in sorted ID order
	// so the first-wins dedup rule is deterministic.
	sourceIDs := make([]string, 0, len(bySource))
	for id := range bySource {
		sourceIDs = append(sourceIDs, id)
	}
	sort.Strings(sourceIDs)

	type dedupKey struct {
		source string
		uid    string
	}
	seen := make(map[dedupKey]struct{})

	for _, srcID := range sourceIDs {
		events := bySource[srcID]

		if reason, ok := malformed(events); ok {
			warnings = append(warnings, Warning{SourceID: srcID, Reason: reason})
			continue
		}

		for _, ev := range events {
			if ev.Start.Before(windowStart) || ev.Start.After(windowEnd) {
				continue
			}
			key := dedupKey{source: ev.SourceID, uid: ev.UID}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			week.Events = append(week.Events, ev)
		}
	}

	sort.SliceStable(week.Events, func(i, j int) bool {
		a, b := week.Events[i], week.Events[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return a.Title < b.Title
	})

	return week, warnings
}

// malformed reports whether the raw list contains an event missing required
// fields. One bad event poisons its whole calendar, not the whole brief.
func malformed(events []model.Event) (string, bool) {
	for i, ev := range events {
		if ev.UID == "" {
			return fmt.Sprintf("event %d has no id", i), true
		}
		if ev.Start.IsZero() {
			return fmt.Sprintf("event %d (%s) has no start time", i, ev.UID), true
		}
	}
	return "", false
}
