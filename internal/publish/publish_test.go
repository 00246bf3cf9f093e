package publish

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"weeklybrief/internal/model"
)

func newTestPublisher(t *testing.T, baseURL string) *Publisher {
	t.Helper()
	return &Publisher{
		OutputDir:       t.TempDir(),
		BaseURL:         baseURL,
		ShowTitle:       "My Weekly Brief",
		ShowDescription: "A private weekly brief of your upcoming calendar events.",
		Language:        "en",
	}
}

func artifact(body string) model.AudioArtifact {
	return model.AudioArtifact{MP3: []byte(body)}
}

func TestPublishWritesTextAndAudio(t *testing.T) {
	p := newTestPublisher(t, "")

	res, err := p.Publish(artifact("mp3-bytes"), "2026-08-31", "Monday 9am: Team standup.")
	if err != nil {
		t.Fatal(err)
	}

	text, err := os.ReadFile(res.TextPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(text) != "Monday 9am: Team standup." {
		t.Errorf("brief text = %q", text)
	}

	audio, err := os.ReadFile(res.AudioPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(audio) != "mp3-bytes" {
		t.Errorf("audio = %q", audio)
	}

	if res.FeedPath != "" {
		t.Error("feed must not be written without a base URL")
	}
	if _, err := os.Stat(filepath.Join(p.OutputDir, "feed.xml")); !os.IsNotExist(err) {
		t.Error("feed.xml exists despite empty base URL")
	}
}

func TestPublishRejectsBadDateStamp(t *testing.T) {
	p := newTestPublisher(t, "")
	if _, err := p.Publish(artifact("x"), "not-a-date", "text"); err == nil {
		t.Error("expected error for malformed date stamp")
	}
}

func TestFeedIdempotence(t *testing.T) {
	p := newTestPublisher(t, "https://example.com/brief")

	if _, err := p.Publish(artifact("first"), "2026-08-31", "First brief."); err != nil {
		t.Fatal(err)
	}
	res, err := p.Publish(artifact("second-longer"), "2026-08-31", "Second brief.")
	if err != nil {
		t.Fatal(err)
	}

	feed, err := os.ReadFile(res.FeedPath)
	if err != nil {
		t.Fatal(err)
	}

	if got := strings.Count(string(feed), "weekly-brief-2026-08-31</guid>"); got != 1 {
		t.Errorf("feed has %d entries for the date, want exactly 1\n%s", got, feed)
	}
	if !strings.Contains(string(feed), "Second brief.") {
		t.Error("second publish's description must win")
	}

	audio, err := os.ReadFile(res.AudioPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(audio) != "second-longer" {
		t.Error("second publish must overwrite, not duplicate")
	}
}

func TestFeedNewestFirst(t *testing.T) {
	p := newTestPublisher(t, "https://example.com/brief")

	if _, err := p.Publish(artifact("old"), "2026-08-24", "Old week."); err != nil {
		t.Fatal(err)
	}
	res, err := p.Publish(artifact("new"), "2026-08-31", "New week.")
	if err != nil {
		t.Fatal(err)
	}

	feed, err := os.ReadFile(res.FeedPath)
	if err != nil {
		t.Fatal(err)
	}

	newer := strings.Index(string(feed), "weekly-brief-2026-08-31")
	older := strings.Index(string(feed), "weekly-brief-2026-08-24")
	if newer < 0 || older < 0 {
		t.Fatalf("feed is missing an episode:\n%s", feed)
	}
	if newer > older {
		t.Error("episodes must be ordered newest first")
	}

	if !strings.Contains(string(feed), "https://example.com/brief/weekly-brief-2026-08-31.mp3") {
		t.Error("enclosure URL must join base URL and episode filename")
	}
}
