package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeDefaults(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		check func(t *testing.T, c *Config)
	}{
		{
			name: "empty config gets full defaults",
			cfg:  Config{},
			check: func(t *testing.T, c *Config) {
				if c.Timezone != "America/New_York" {
					t.Errorf("Timezone = %q", c.Timezone)
				}
				if c.WordBudget != 150 || c.SentenceBudget != 4 {
					t.Errorf("budgets = %d/%d, want 150/4", c.WordBudget, c.SentenceBudget)
				}
				if c.Mode != "template" {
					t.Errorf("Mode = %q", c.Mode)
				}
				if c.RefreshCron != "0 8 * * 0" {
					t.Errorf("RefreshCron = %q", c.RefreshCron)
				}
				if c.MaxAudioSeconds != 90 {
					t.Errorf("MaxAudioSeconds = %d", c.MaxAudioSeconds)
				}
			},
		},
		{
			name: "unknown language falls back to english",
			cfg:  Config{Language: "klingon"},
			check: func(t *testing.T, c *Config) {
				if c.Language != "en" {
					t.Errorf("Language = %q, want en", c.Language)
				}
			},
		},
		{
			name: "unknown mode falls back to template",
			cfg:  Config{Mode: "oracle"},
			check: func(t *testing.T, c *Config) {
				if c.Mode != "template" {
					t.Errorf("Mode = %q, want template", c.Mode)
				}
			},
		},
		{
			name: "set values survive",
			cfg:  Config{Language: "cs", Mode: "generative", WordBudget: 80},
			check: func(t *testing.T, c *Config) {
				if c.Language != "cs" || c.Mode != "generative" || c.WordBudget != 80 {
					t.Errorf("values overwritten: %+v", c)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Normalize()
			tt.check(t, &tt.cfg)
		})
	}
}

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.OutputDir != "output" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config file was not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config file perms = %o, want 0600", perm)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
timezone: Europe/Prague
language: cs
mode: generative
word_budget: 120
feed_base_url: https://example.com/brief
calendars:
  - id: work
    name: Work
    url: https://example.com/work.ics
  - id: personal
    name: Personal
    url: https://example.com/personal.ics
basic_auth:
  username: me
  password: secret
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Timezone != "Europe/Prague" || cfg.Language != "cs" || cfg.Mode != "generative" {
		t.Errorf("loaded config = %+v", cfg)
	}
	if cfg.WordBudget != 120 {
		t.Errorf("WordBudget = %d, want 120", cfg.WordBudget)
	}
	if cfg.SentenceBudget != 4 {
		t.Errorf("SentenceBudget = %d, want normalized default 4", cfg.SentenceBudget)
	}
	if len(cfg.Calendars) != 2 || cfg.Calendars[0].ID != "work" {
		t.Errorf("Calendars = %+v", cfg.Calendars)
	}
	if cfg.BasicAuth == nil || cfg.BasicAuth.Username != "me" {
		t.Errorf("BasicAuth = %+v", cfg.BasicAuth)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Error("Load(\"\") should return an error")
	}
}
