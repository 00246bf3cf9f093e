package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"weeklybrief/internal/config"
)

func newTestServer(t *testing.T, auth *config.BasicAuthConfig) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.OutputDir = dir
	cfg.BasicAuth = auth
	return NewServer(cfg), dir
}

func TestHealthNeedsNoAuth(t *testing.T) {
	srv, _ := newTestServer(t, &config.BasicAuthConfig{Username: "me", Password: "secret"})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestEpisodesListing(t *testing.T) {
	srv, dir := newTestServer(t, nil)

	for _, name := range []string{"weekly-brief-2026-08-24.mp3", "weekly-brief-2026-08-31.mp3", "feed.xml", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/episodes", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var episodes []struct {
		Date  string `json:"date"`
		Audio string `json:"audio"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &episodes); err != nil {
		t.Fatal(err)
	}
	if len(episodes) != 2 {
		t.Fatalf("got %d episodes, want 2 (mp3 files only)", len(episodes))
	}
	if episodes[0].Date != "2026-08-31" {
		t.Errorf("episodes[0] = %+v, want newest first", episodes[0])
	}
}

func TestBasicAuth(t *testing.T) {
	srv, dir := newTestServer(t, &config.BasicAuthConfig{Username: "me", Password: "secret"})
	if err := os.WriteFile(filepath.Join(dir, "feed.xml"), []byte("<rss/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		user, pass string
		withCreds  bool
		wantStatus int
	}{
		{"no credentials", "", "", false, http.StatusUnauthorized},
		{"wrong password", "me", "nope", true, http.StatusUnauthorized},
		{"valid credentials", "me", "secret", true, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/feed.xml", nil)
			if tt.withCreds {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
