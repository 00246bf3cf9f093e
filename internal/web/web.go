package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"weeklybrief/internal/config"
	appLog "weeklybrief/internal/log"
)

// Server hosts the private feed: the output directory (feed.xml and episode
// MP3s), a health endpoint and a small JSON episode listing. Everything
// except /health sits behind optional HTTP basic auth, since the feed is
// personal.
type Server struct {
	cfg *config.Config
	mux *http.ServeMux
}

// NewServer constructs a feed host over the configured output directory.
func NewServer(cfg *config.Config) *Server {
	s := &Server{
		cfg: cfg,
		mux: http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("feed host listening", "addr", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/api/episodes", s.withAuth(http.HandlerFunc(s.handleEpisodes)))
	s.mux.Handle("/", s.withAuth(http.FileServer(http.Dir(s.cfg.OutputDir))))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// episodeInfo is the /api/episodes listing entry.
type episodeInfo struct {
	Date  string `json:"date"`
	Audio string `json:"audio"`
	Bytes int64  `json:"bytes"`
}

func (s *Server) handleEpisodes(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(s.cfg.OutputDir)
	if err != nil && !os.IsNotExist(err) {
		http.Error(w, "failed to read output directory", http.StatusInternalServerError)
		return
	}

	episodes := make([]episodeInfo, 0)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "weekly-brief-") || !strings.HasSuffix(name, ".mp3") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		episodes = append(episodes, episodeInfo{
			Date:  strings.TrimSuffix(strings.TrimPrefix(name, "weekly-brief-"), ".mp3"),
			Audio: "/" + filepath.ToSlash(name),
			Bytes: info.Size(),
		})
	}
	sort.Slice(episodes, func(i, j int) bool { return episodes[i].Date > episodes[j].Date })

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(episodes)
}

// withAuth wraps h with HTTP basic auth when credentials are configured.
func (s *Server) withAuth(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ba := s.cfg.BasicAuth
		if ba == nil || ba.Username == "" {
			h.ServeHTTP(w, r)
			return
		}

		user, pass, ok := r.BasicAuth()
		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(ba.Username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(ba.Password)) == 1
		if !ok || !userOK || !passOK {
			w.Header().Set("WWW-Authenticate", `Basic realm="weeklybrief"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		h.ServeHTTP(w, r)
	})
}
