package summary

import (
	"context"
	"strings"
	"time"

	appLog "weeklybrief/internal/log"
	"weeklybrief/internal/model"
)

// Mode selects the summarization path.
type Mode string

const (
	ModeTemplate   Mode = "template"
	ModeGenerative Mode = "generative"
)

const (
	defaultWordBudget     = 150
	defaultSentenceBudget = 4
)

// Generator produces free text from a prompt. The real implementation calls
// the Gemini API; tests substitute a deterministic stub.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Options configure a single Summarize call. Zero budgets fall back to the
// 150-word / 4-sentence defaults.
type Options struct {
	Mode           Mode
	Language       string
	WordBudget     int
	SentenceBudget int
}

func (o *Options) normalize() {
	if o.Mode == "" {
		o.Mode = ModeTemplate
	}
	if o.Language == "" {
		o.Language = "en"
	}
	if o.WordBudget <= 0 {
		o.WordBudget = defaultWordBudget
	}
	if o.SentenceBudget <= 0 {
		o.SentenceBudget = defaultSentenceBudget
	}
}

// Summarizer turns an aggregated week into a bounded spoken-style brief.
type Summarizer struct {
	gen Generator
}

// New creates a Summarizer. gen may be nil, in which case generative mode
// degrades to template mode with a warning.
func New(gen Generator) *Summarizer {
	return &Summarizer{gen: gen}
}

// Summarize renders the week into a Brief honoring both budgets. Template
// mode is fully deterministic. Generative mode performs at most two outbound
// calls and always falls back to bounded text: whatever the external call
// returns, the result never exceeds the budgets by more than the documented
// single-oversized-sentence edge case.
func (s *Summarizer) Summarize(ctx context.Context, week model.AggregatedWeek, opts Options) (model.Brief, error) {
	opts.normalize()

	// Empty week bypasses both budgets and both modes.
	if len(week.Events) == 0 {
		return model.Brief{
			Text:     noEventsMessage(opts.Language),
			Language: opts.Language,
		}, nil
	}

	if opts.Mode == ModeGenerative {
		if brief, ok := s.summarizeGenerative(ctx, week, opts); ok {
			return brief, nil
		}
		// Fall through to the template path on any generative failure.
	}

	text, over := enforceBudgets(renderTemplate(week, opts.Language), opts.WordBudget, opts.SentenceBudget)
	if over {
		appLog.Warn("brief over budget", "class", "BudgetViolation",
			"reason", "first sentence alone exceeds word budget", "words", countWords(text))
	}

	return model.Brief{
		Text:       text,
		Language:   opts.Language,
		OverBudget: over,
	}, nil
}

// summarizeGenerative runs the generative path. ok=false means the caller
// must fall back to template mode.
func (s *Summarizer) summarizeGenerative(ctx context.Context, week model.AggregatedWeek, opts Options) (model.Brief, bool) {
	if s.gen == nil {
		appLog.Warn("generative mode requested without a generator", "class", "GenerativeCallError",
			"remedy", "set GEMINI_API_KEY or switch mode to template")
		return model.Brief{}, false
	}

	prompt := buildPrompt(week, opts)

	text, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		appLog.Warn("generative call failed, falling back to template", "class", "GenerativeCallError", "reason", err)
		return model.Brief{}, false
	}

	text = flatten(text)
	if text == "" {
		appLog.Warn("generative call returned empty text, falling back to template", "class", "GenerativeCallError")
		return model.Brief{}, false
	}

	if withinBudgets(text, opts.WordBudget, opts.SentenceBudget) {
		return model.Brief{Text: text, Language: opts.Language, Generative: true}, true
	}

	// One re-request with a stricter reminder, then truncate. Never more.
	retryText, err := s.gen.Generate(ctx, prompt+"\n\n"+retryReminder(opts))
	if err == nil {
		if retryText = flatten(retryText); retryText != "" {
			text = retryText
		}
	}

	if withinBudgets(text, opts.WordBudget, opts.SentenceBudget) {
		return model.Brief{Text: text, Language: opts.Language, Generative: true}, true
	}

	truncated, over := enforceBudgets(text, opts.WordBudget, opts.SentenceBudget)
	appLog.Warn("generative text over budget after retry, truncated", "class", "BudgetViolation",
		"words", countWords(truncated), "sentences", len(splitSentences(truncated)))

	return model.Brief{
		Text:       truncated,
		Language:   opts.Language,
		Generative: true,
		OverBudget: over,
	}, true
}

// renderTemplate produces the deterministic day-by-day rendering:
// "Monday 9am: Team standup. Tuesday all day: Conference."
// Events arrive already ordered, so a single pass keeps chronology.
func renderTemplate(week model.AggregatedWeek, language string) string {
	parts := make([]string, 0, len(week.Events))
	for _, ev := range week.Events {
		title := ev.Title
		if title == "" {
			title = untitledLabel(language)
		}

		var when string
		if ev.AllDay {
			when = allDayLabel(language)
		} else {
			when = clockTime(ev.Start, language)
		}

		parts = append(parts, dayName(ev.Start.Weekday(), language)+" "+when+": "+title+".")
	}
	return strings.Join(parts, " ")
}

// enforceBudgets drops whole trailing sentences until both budgets hold.
// The first sentence is never cut mid-sentence; if it alone exceeds the word
// budget it is kept whole and reported as over.
func enforceBudgets(text string, wordBudget, sentenceBudget int) (string, bool) {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return strings.TrimSpace(text), false
	}

	if len(sentences) > sentenceBudget {
		sentences = sentences[:sentenceBudget]
	}
	for len(sentences) > 1 && wordCount(sentences) > wordBudget {
		sentences = sentences[:len(sentences)-1]
	}

	out := strings.Join(sentences, " ")
	return out, countWords(out) > wordBudget
}

func withinBudgets(text string, wordBudget, sentenceBudget int) bool {
	return countWords(text) <= wordBudget && len(splitSentences(text)) <= sentenceBudget
}

// splitSentences breaks text after '.', '!' or '?' followed by whitespace
// (or end of text). Terminators stay attached to their sentence.
func splitSentences(text string) []string {
	var out []string
	var cur strings.Builder

	runes := []rune(strings.TrimSpace(text))
	for i, r := range runes {
		cur.WriteRune(r)
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		atEnd := i == len(runes)-1
		if atEnd || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
			if s := strings.TrimSpace(cur.String()); s != "" {
				out = append(out, s)
			}
			cur.Reset()
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}

func countWords(text string) int {
	return len(strings.Fields(text))
}

func wordCount(sentences []string) int {
	total := 0
	for _, s := range sentences {
		total += countWords(s)
	}
	return total
}

// flatten collapses a multi-line generative reply into one line of plain
// prose and strips markdown emphasis markers the model sometimes adds.
func flatten(text string) string {
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "*", "")
	text = strings.ReplaceAll(text, "`", "")
	return strings.Join(strings.Fields(text), " ")
}

// clockTime renders a start time the way the brief speaks it: "9am" /
// "2:30pm" in English, 24-hour "9:00" / "14:30" in Czech.
func clockTime(t time.Time, language string) string {
	h, m := t.Hour(), t.Minute()

	if language == "cs" {
		return itoa(h) + ":" + pad2(m)
	}

	suffix := "am"
	h12 := h
	switch {
	case h == 0:
		h12 = 12
	case h == 12:
		suffix = "pm"
	case h > 12:
		h12 = h - 12
		suffix = "pm"
	}
	if m == 0 {
		return itoa(h12) + suffix
	}
	return itoa(h12) + ":" + pad2(m) + suffix
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [4]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

func pad2(n int) string {
	if n < 10 {
		return "0" + itoa(n)
	}
	return itoa(n)
}
