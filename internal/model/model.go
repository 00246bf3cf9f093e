package model

import "time"

// Event represents a single calendar occurrence after source normalization.
// Recurring events are expanded into one Event per occurrence before they
// reach the aggregator.
type Event struct {
	SourceID string // calendar source ID (e.g., config calendar ID)
	UID      string // provider event identifier, unique per source

	Title string

	AllDay bool

	// Start / End are in the configured display timezone. All-day events
	// carry their date's midnight as Start.
	Start time.Time
	End   time.Time
}

// AggregatedWeek is the deduplicated, time-ordered event list for the
// upcoming 7-day window. It is built fresh per run and never mutated
// afterwards.
type AggregatedWeek struct {
	// WindowStart / WindowEnd are the inclusive bounds of the week,
	// Monday 00:00:00 through Sunday 23:59:59 in the display timezone.
	WindowStart time.Time
	WindowEnd   time.Time

	// Events is sorted by Start ascending, ties broken by Title.
	Events []Event
}

// Brief is the bounded natural-language weekly summary.
type Brief struct {
	Text     string
	Language string

	// Generative is true when the text came from the generative path
	// (and is therefore not guaranteed reproducible).
	Generative bool

	// OverBudget marks the documented edge case where a single sentence
	// alone exceeds the word budget and was kept whole anyway.
	OverBudget bool
}

// AudioArtifact holds synthesized audio plus an estimated duration.
type AudioArtifact struct {
	MP3 []byte

	// Duration is estimated from the encoded byte length; it is advisory
	// only and never enforced.
	Duration time.Duration
}
