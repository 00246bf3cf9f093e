package publish

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/eduncan911/podcast"

	appLog "weeklybrief/internal/log"
	"weeklybrief/internal/model"
)

const (
	episodePrefix = "weekly-brief-"
	dateLayout    = "2006-01-02"
)

// Result reports where the artifacts of one publish ended up.
type Result struct {
	TextPath  string
	AudioPath string
	FeedPath  string // empty when feed generation is disabled
	FeedURL   string
}

// Publisher writes the brief text, the audio episode and (when a base URL is
// configured) the podcast feed. Publishing the same date stamp twice
// overwrites; it never duplicates.
type Publisher struct {
	OutputDir       string
	BaseURL         string // empty disables the feed
	ShowTitle       string
	ShowDescription string
	Language        string
}

type episode struct {
	date string // YYYY-MM-DD
	size int64
}

// Publish writes weekly-brief-<date>.txt and .mp3 into OutputDir, then
// rebuilds feed.xml from the full episode set. The feed is only touched
// after the audio write succeeded, so a failed run never leaves the feed
// pointing at a missing episode.
func (p *Publisher) Publish(art model.AudioArtifact, dateStamp string, briefText string) (Result, error) {
	if _, err := time.Parse(dateLayout, dateStamp); err != nil {
		return Result{}, fmt.Errorf("invalid date stamp %q: %w", dateStamp, err)
	}
	if err := os.MkdirAll(p.OutputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create output dir: %w", err)
	}

	res := Result{
		TextPath:  filepath.Join(p.OutputDir, episodePrefix+dateStamp+".txt"),
		AudioPath: filepath.Join(p.OutputDir, episodePrefix+dateStamp+".mp3"),
	}

	if err := os.WriteFile(res.TextPath, []byte(briefText), 0o644); err != nil {
		return Result{}, fmt.Errorf("write brief text: %w", err)
	}
	if err := os.WriteFile(res.AudioPath, art.MP3, 0o644); err != nil {
		return Result{}, fmt.Errorf("write audio: %w", err)
	}
	appLog.Info("episode written", "audio", res.AudioPath, "bytes", len(art.MP3))

	if p.BaseURL == "" {
		return res, nil
	}

	episodes, err := p.collectEpisodes()
	if err != nil {
		return Result{}, fmt.Errorf("scan episodes: %w", err)
	}

	feedPath := filepath.Join(p.OutputDir, "feed.xml")
	if err := p.writeFeed(feedPath, episodes, dateStamp, briefText); err != nil {
		return Result{}, fmt.Errorf("write feed: %w", err)
	}

	res.FeedPath = feedPath
	res.FeedURL = strings.TrimRight(p.BaseURL, "/") + "/feed.xml"
	appLog.Info("feed updated", "path", feedPath, "episodes", len(episodes))
	return res, nil
}

// collectEpisodes rebuilds the episode set from the MP3 files on disk. One
// file per date stamp makes dedup structural: republishing a date replaces
// its file and therefore its single feed entry.
func (p *Publisher) collectEpisodes() ([]episode, error) {
	entries, err := os.ReadDir(p.OutputDir)
	if err != nil {
		return nil, err
	}

	var episodes []episode
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, episodePrefix) || !strings.HasSuffix(name, ".mp3") {
			continue
		}
		date := strings.TrimSuffix(strings.TrimPrefix(name, episodePrefix), ".mp3")
		if _, err := time.Parse(dateLayout, date); err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		episodes = append(episodes, episode{date: date, size: info.Size()})
	}

	// Newest first.
	sort.Slice(episodes, func(i, j int) bool { return episodes[i].date > episodes[j].date })
	return episodes, nil
}

func (p *Publisher) writeFeed(path string, episodes []episode, currentDate, currentText string) error {
	base := strings.TrimRight(p.BaseURL, "/")
	now := time.Now().UTC()

	feed := podcast.New(p.ShowTitle, base, p.ShowDescription, &now, &now)
	feed.Language = feedLanguage(p.Language)
	feed.Generator = "weeklybrief"
	feed.IExplicit = "no"
	feed.AddImage(base + "/cover.png")

	for _, ep := range episodes {
		pubDate, _ := time.Parse(dateLayout, ep.date)

		desc := fmt.Sprintf("Weekly brief for the week of %s.", ep.date)
		if ep.date == currentDate && currentText != "" {
			desc = currentText
		}

		item := podcast.Item{
			Title:       "Weekly Brief " + ep.date,
			Description: desc,
			GUID:        episodePrefix + ep.date,
			PubDate:     &pubDate,
		}
		item.AddEnclosure(base+"/"+episodePrefix+ep.date+".mp3", podcast.MP3, ep.size)

		if _, err := feed.AddItem(item); err != nil {
			return fmt.Errorf("add episode %s: %w", ep.date, err)
		}
	}

	var buf bytes.Buffer
	if err := feed.Encode(&buf); err != nil {
		return err
	}

	// Atomic replace so a reader never sees a half-written feed.
	tmp, err := os.CreateTemp(p.OutputDir, ".feed-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func feedLanguage(language string) string {
	if language == "cs" {
		return "cs"
	}
	return "en-us"
}
