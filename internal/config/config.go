package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CalendarConfig describes a single ICS calendar subscription.
type CalendarConfig struct {
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the feed host.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the optional feed host.
	// Empty disables the server.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used as the display zone for the
	// weekly window (e.g. "America/New_York").
	Timezone string `yaml:"timezone" json:"timezone"`

	// Language selects phrasing rules and the TTS voice. Supported
	// values: "en", "cs".
	Language string `yaml:"language" json:"language"`

	// RefreshCron is a cron-style schedule for the weekly run.
	// Default fires Sundays at 08:00.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// OutputDir is where briefs, audio and the feed document are written.
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// Mode selects the summarization path: "template" or "generative".
	// Generative additionally requires GEMINI_API_KEY in the environment.
	Mode string `yaml:"mode" json:"mode"`

	// GenerativeModel names the Gemini model used in generative mode.
	GenerativeModel string `yaml:"generative_model" json:"generative_model"`

	// WordBudget / SentenceBudget bound the brief text.
	WordBudget     int `yaml:"word_budget" json:"word_budget"`
	SentenceBudget int `yaml:"sentence_budget" json:"sentence_budget"`

	// MaxAudioSeconds is the advisory ceiling on episode duration.
	MaxAudioSeconds int `yaml:"max_audio_seconds" json:"max_audio_seconds"`

	// TTSVoice / TTSLanguageCode override the language-derived defaults.
	TTSVoice        string `yaml:"tts_voice" json:"tts_voice"`
	TTSLanguageCode string `yaml:"tts_language_code" json:"tts_language_code"`

	// FeedBaseURL is the public base URL episodes are served under.
	// Empty disables feed generation.
	FeedBaseURL string `yaml:"feed_base_url" json:"feed_base_url"`

	// ShowTitle / ShowDescription appear in the feed channel.
	ShowTitle       string `yaml:"show_title" json:"show_title"`
	ShowDescription string `yaml:"show_description" json:"show_description"`

	// Calendars is the list of subscribed calendar sources.
	Calendars []CalendarConfig `yaml:"calendars" json:"calendars"`

	// BasicAuth, if non-nil, protects all feed host endpoints except
	// /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:          "",
		Timezone:        "America/New_York",
		Language:        "en",
		RefreshCron:     "0 8 * * 0",
		OutputDir:       "output",
		Mode:            "template",
		GenerativeModel: "gemini-2.5-flash",
		WordBudget:      150,
		SentenceBudget:  4,
		MaxAudioSeconds: 90,
		ShowTitle:       "My Weekly Brief",
		ShowDescription: "A private weekly brief of your upcoming calendar events.",
		Calendars:       []CalendarConfig{},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Timezone == "" {
		c.Timezone = "America/New_York"
	}
	switch c.Language {
	case "en", "cs":
		// ok
	default:
		c.Language = "en"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "0 8 * * 0"
	}
	if c.OutputDir == "" {
		c.OutputDir = "output"
	}
	switch c.Mode {
	case "template", "generative":
		// ok
	default:
		c.Mode = "template"
	}
	if c.GenerativeModel == "" {
		c.GenerativeModel = "gemini-2.5-flash"
	}
	if c.WordBudget <= 0 {
		c.WordBudget = 150
	}
	if c.SentenceBudget <= 0 {
		c.SentenceBudget = 4
	}
	if c.MaxAudioSeconds <= 0 {
		c.MaxAudioSeconds = 90
	}
	if c.ShowTitle == "" {
		c.ShowTitle = "My Weekly Brief"
	}
	if c.ShowDescription == "" {
		c.ShowDescription = "A private weekly brief of your upcoming calendar events."
	}
	if c.Calendars == nil {
		c.Calendars = []CalendarConfig{}
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist: create the parent directory if needed,
//     write a default config with 0600 perms, and return the defaults.
//   - If the file exists: read YAML, unmarshal, normalize defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// The write is atomic (temp file + rename) and the final file ends up with
// 0600 permissions, since calendar URLs routinely embed private tokens.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".weeklybrief-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
