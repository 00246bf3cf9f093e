package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "weeklybrief/internal/log"
	"weeklybrief/internal/model"
)

const defaultMaxOccurrencesPerEvent = 1000

// ExpandConfig controls recurrence expansion.
type ExpandConfig struct {
	// DisplayLocation is the timezone occurrences are converted into.
	// If nil, time.Local is used.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd define the inclusive window for occurrences.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps pathological expansions. Zero means the
	// default cap.
	MaxOccurrencesPerEvent int
}

// Expand turns parsed events into concrete model.Event occurrences inside
// the window, handling:
//
//   - single non-recurring events
//   - RRULE-based recurrence with EXDATE exceptions
//   - all-day semantics (midnight of the date in the display timezone)
//
// Occurrences of a recurring event get the occurrence start appended to the
// UID so each instance stays individually addressable downstream.
func Expand(events []ParsedEvent, cfg ExpandConfig) ([]model.Event, error) {
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return nil, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	out := make([]model.Event, 0, len(events))

	for _, ev := range events {
		if ev.RawRRule == "" {
			if inRange(ev.Start, cfg) {
				out = append(out, makeEvent(ev, ev.Start, ev.End, false, cfg.DisplayLocation))
			}
			continue
		}
		out = append(out, expandRecurring(ev, cfg)...)
	}

	return out, nil
}

func expandRecurring(ev ParsedEvent, cfg ExpandConfig) []model.Event {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Warn("failed to parse RRULE, skipping event", "class", "SourceError",
			"id", ev.Source.ID, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Between operates in the event's own timezone.
	rangeStart := cfg.RangeStart.In(ev.Start.Location())
	rangeEnd := cfg.RangeEnd.In(ev.Start.Location())
	occTimes := set.Between(rangeStart, rangeEnd, true)

	if len(occTimes) > cfg.MaxOccurrencesPerEvent {
		appLog.Warn("recurrence expansion capped", "id", ev.Source.ID, "uid", ev.UID,
			"cap", cfg.MaxOccurrencesPerEvent)
		occTimes = occTimes[:cfg.MaxOccurrencesPerEvent]
	}

	dur := ev.End.Sub(ev.Start)

	out := make([]model.Event, 0, len(occTimes))
	for _, occStart := range occTimes {
		out = append(out, makeEvent(ev, occStart, occStart.Add(dur), true, cfg.DisplayLocation))
	}
	return out
}

// makeEvent normalizes one occurrence into the display timezone. All-day
// occurrences snap to midnight of their date so they sort at the start of
// the day.
func makeEvent(ev ParsedEvent, start, end time.Time, recurring bool, loc *time.Location) model.Event {
	start = start.In(loc)
	end = end.In(loc)

	if ev.AllDay {
		start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
		end = start.Add(24 * time.Hour)
	}

	uid := ev.UID
	if recurring {
		uid += "/" + start.Format(time.RFC3339)
	}

	return model.Event{
		SourceID: ev.Source.ID,
		UID:      uid,
		Title:    ev.Summary,
		AllDay:   ev.AllDay,
		Start:    start,
		End:      end,
	}
}

func inRange(t time.Time, cfg ExpandConfig) bool {
	return !t.Before(cfg.RangeStart) && !t.After(cfg.RangeEnd)
}
