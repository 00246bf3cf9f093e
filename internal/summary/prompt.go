package summary

import (
	"fmt"
	"strings"

	"weeklybrief/internal/model"
)

const promptHeader = `You are preparing a short spoken weekly brief of a personal calendar.
Write it in %s, in natural spoken language, as if reading it aloud to the
listener over morning coffee. Where the titles suggest everyday categories
(a birthday, a cinema visit, a doctor's appointment), phrase them the way a
person would say them, not the way the calendar spells them.

Hard limits:
- at most %d words
- at most %d sentences
- plain prose only, no lists, no markdown, no preamble

The week's events, in order:

%s`

// buildPrompt renders the ordered event list as a compact table and wraps it
// in the instruction frame for the generative call.
func buildPrompt(week model.AggregatedWeek, opts Options) string {
	var table strings.Builder
	for _, ev := range week.Events {
		when := ev.Start.Format("Mon 2006-01-02 15:04")
		if ev.AllDay {
			when = ev.Start.Format("Mon 2006-01-02") + " all day"
		}
		title := ev.Title
		if title == "" {
			title = untitledLabel(opts.Language)
		}
		fmt.Fprintf(&table, "%s | %s | %s\n", when, title, ev.SourceID)
	}

	return fmt.Sprintf(promptHeader,
		languageName(opts.Language), opts.WordBudget, opts.SentenceBudget, table.String())
}

func retryReminder(opts Options) string {
	return fmt.Sprintf(
		"IMPORTANT: your previous reply exceeded the limits. Rewrite the brief in at most %d words and at most %d sentences. Do not exceed either limit.",
		opts.WordBudget, opts.SentenceBudget)
}
