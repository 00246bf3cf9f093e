package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"weeklybrief/internal/aggregate"
	appLog "weeklybrief/internal/log"
	"weeklybrief/internal/model"
	"weeklybrief/internal/publish"
	"weeklybrief/internal/summary"
)

// Stage names the four conceptual pipeline phases reported to the user.
type Stage string

const (
	StageFetch      Stage = "fetch"
	StageSummarize  Stage = "summarize"
	StageSynthesize Stage = "synthesize"
	StagePublish    Stage = "publish"
)

// StageError is a fatal, run-aborting failure attributed to one stage. It
// carries the error class and a single suggested remedy instead of raw
// collaborator errors.
type StageError struct {
	Stage  Stage
	Class  string
	Remedy string
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed (%s): %v", e.Stage, e.Class, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// EventSource fetches per-calendar raw event lists for a window.
type EventSource interface {
	FetchEvents(ctx context.Context, windowStart, windowEnd time.Time) (map[string][]model.Event, []error)
}

// Synthesizer converts brief text into one audio artifact.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (model.AudioArtifact, error)
}

// Publisher writes the run's artifacts.
type Publisher interface {
	Publish(art model.AudioArtifact, dateStamp string, briefText string) (publish.Result, error)
}

// Summarizer turns an aggregated week into a brief.
type Summarizer interface {
	Summarize(ctx context.Context, week model.AggregatedWeek, opts summary.Options) (model.Brief, error)
}

// RunReport records what one pipeline run did.
type RunReport struct {
	DateStamp string
	Window    [2]time.Time
	Events    int
	Brief     model.Brief
	Completed []Stage
	Publish   publish.Result
}

// String renders the user-facing completion summary.
func (r RunReport) String() string {
	stages := make([]string, len(r.Completed))
	for i, s := range r.Completed {
		stages[i] = string(s)
	}
	out := fmt.Sprintf("completed stages: %s; week of %s, %d events",
		strings.Join(stages, ", "), r.DateStamp, r.Events)
	if r.Publish.AudioPath != "" {
		out += "; audio: " + r.Publish.AudioPath
	}
	if r.Publish.FeedURL != "" {
		out += "; feed: " + r.Publish.FeedURL
	}
	return out
}

// Pipeline wires the four stages. Each run is strictly sequential and
// either completes a stage and proceeds or aborts the whole run; nothing is
// resumed mid-pipeline.
type Pipeline struct {
	Source     EventSource
	Summarizer Summarizer
	Synth      Synthesizer
	Pub        Publisher

	Location *time.Location
	Options  summary.Options

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// Run executes fetch → summarize → synthesize → publish for the upcoming
// week. The returned report names every completed stage; a non-nil error is
// always a *StageError naming the failed one.
func (p *Pipeline) Run(ctx context.Context) (RunReport, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	loc := p.Location
	if loc == nil {
		loc = time.Local
	}

	windowStart, windowEnd := aggregate.NextWeekWindow(now(), loc)
	report := RunReport{
		DateStamp: windowStart.Format("2006-01-02"),
		Window:    [2]time.Time{windowStart, windowEnd},
	}

	// Stage 1: fetch + aggregate.
	appLog.Info("stage fetch", "window_start", windowStart.Format(time.RFC3339),
		"window_end", windowEnd.Format(time.RFC3339))

	bySource, errs := p.Source.FetchEvents(ctx, windowStart, windowEnd)
	if len(bySource) == 0 {
		if len(errs) > 0 {
			return report, &StageError{
				Stage:  StageFetch,
				Class:  "FatalStageError",
				Remedy: "check calendar URLs in the config file and network connectivity",
				Err:    fmt.Errorf("all %d calendars failed, first error: %w", len(errs), errs[0]),
			}
		}
		return report, &StageError{
			Stage:  StageFetch,
			Class:  "FatalStageError",
			Remedy: "add at least one calendar to the config file",
			Err:    fmt.Errorf("no calendar sources configured"),
		}
	}

	week, warnings := aggregate.Aggregate(bySource, windowStart, windowEnd)
	for _, w := range warnings {
		appLog.Warn("calendar skipped during aggregation", "class", "SourceError",
			"id", w.SourceID, "reason", w.Reason)
	}
	report.Events = len(week.Events)
	report.Completed = append(report.Completed, StageFetch)

	// Stage 2: summarize.
	appLog.Info("stage summarize", "mode", string(p.Options.Mode), "events", len(week.Events))
	brief, err := p.Summarizer.Summarize(ctx, week, p.Options)
	if err != nil {
		return report, &StageError{
			Stage:  StageSummarize,
			Class:  "FatalStageError",
			Remedy: "rerun with mode set to template",
			Err:    err,
		}
	}
	report.Brief = brief
	report.Completed = append(report.Completed, StageSummarize)

	// Stage 3: synthesize. Nothing has been written yet; a failure here
	// leaves no partial output behind.
	appLog.Info("stage synthesize", "words", len(strings.Fields(brief.Text)))
	art, err := p.Synth.Synthesize(ctx, brief.Text)
	if err != nil {
		return report, &StageError{
			Stage:  StageSynthesize,
			Class:  "FatalStageError",
			Remedy: "check Google Cloud credentials (GOOGLE_APPLICATION_CREDENTIALS) and Text-to-Speech quota",
			Err:    err,
		}
	}
	report.Completed = append(report.Completed, StageSynthesize)

	// Stage 4: publish.
	appLog.Info("stage publish", "date", report.DateStamp)
	res, err := p.Pub.Publish(art, report.DateStamp, brief.Text)
	if err != nil {
		return report, &StageError{
			Stage:  StagePublish,
			Class:  "FatalStageError",
			Remedy: "check that the output directory exists and is writable",
			Err:    err,
		}
	}
	report.Publish = res
	report.Completed = append(report.Completed, StagePublish)

	return report, nil
}
