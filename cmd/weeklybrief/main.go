package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"weeklybrief/internal/config"
	"weeklybrief/internal/ics"
	appLog "weeklybrief/internal/log"
	"weeklybrief/internal/pipeline"
	"weeklybrief/internal/publish"
	"weeklybrief/internal/speech"
	"weeklybrief/internal/summary"
	"weeklybrief/internal/web"
)

type flagConfig struct {
	configPath    string
	once          bool
	skipFeed      bool
	listCalendars bool
}

func main() {
	appLog.Info("weeklybrief starting", "version", "0.1.0")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	if flags.listCalendars {
		if len(conf.Calendars) == 0 {
			fmt.Println("No calendars configured. Add entries under `calendars:` in", flags.configPath)
			return
		}
		fmt.Println("Configured calendars:")
		for _, c := range conf.Calendars {
			fmt.Printf("  - %s: %s\n", c.ID, c.Name)
		}
		return
	}

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		appLog.Error("invalid timezone", err, "timezone", conf.Timezone)
		os.Exit(1)
	}

	appLog.Info("effective config",
		"timezone", conf.Timezone,
		"language", conf.Language,
		"mode", conf.Mode,
		"calendar_count", len(conf.Calendars),
		"output_dir", conf.OutputDir,
		"refresh", conf.RefreshCron,
		"once", flags.once,
	)

	p := buildPipeline(conf, loc, flags.skipFeed)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if flags.once {
		os.Exit(runOnce(ctx, p))
	}

	// Scheduled mode: cron-driven weekly runs plus the optional feed host.
	c := cron.New()
	if _, err := c.AddFunc(conf.RefreshCron, func() { runOnce(ctx, p) }); err != nil {
		appLog.Error("invalid refresh cron expression", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()
	appLog.Info("scheduler started", "refresh", conf.RefreshCron)

	if conf.Listen != "" {
		srv := web.NewServer(conf)
		go func() {
			if err := srv.ListenAndServe(ctx); err != nil {
				appLog.Error("feed host stopped", err)
				cancel()
			}
		}()
	}

	<-ctx.Done()
	appLog.Info("weeklybrief exiting")
}

func runOnce(ctx context.Context, p *pipeline.Pipeline) int {
	report, err := p.Run(ctx)
	if err != nil {
		completed := make([]string, len(report.Completed))
		for i, s := range report.Completed {
			completed[i] = string(s)
		}
		appLog.Error("run failed", err, "completed_stages", strings.Join(completed, ","))
		if se, ok := err.(*pipeline.StageError); ok {
			fmt.Fprintf(os.Stderr, "Stage %s failed (%s).\nFix: %s\n", se.Stage, se.Class, se.Remedy)
		}
		return 1
	}
	fmt.Println(report.String())
	return 0
}

func buildPipeline(conf *config.Config, loc *time.Location, skipFeed bool) *pipeline.Pipeline {
	sources := make([]ics.Source, 0, len(conf.Calendars))
	for _, c := range conf.Calendars {
		sources = append(sources, ics.Source{ID: c.ID, Name: c.Name, URL: c.URL})
	}

	var gen summary.Generator
	mode := summary.Mode(conf.Mode)
	if mode == summary.ModeGenerative {
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			gen = summary.NewGeminiGenerator(key, conf.GenerativeModel)
		} else {
			appLog.Warn("generative mode configured but GEMINI_API_KEY is unset, using template mode")
			mode = summary.ModeTemplate
		}
	}

	baseURL := conf.FeedBaseURL
	if skipFeed {
		baseURL = ""
	}

	return &pipeline.Pipeline{
		Source:     ics.NewClient(sources, filepath.Join(conf.OutputDir, "ics-cache"), loc),
		Summarizer: summary.New(gen),
		Synth: speech.New(conf.Language, conf.TTSVoice, conf.TTSLanguageCode,
			time.Duration(conf.MaxAudioSeconds)*time.Second),
		Pub: &publish.Publisher{
			OutputDir:       conf.OutputDir,
			BaseURL:         baseURL,
			ShowTitle:       conf.ShowTitle,
			ShowDescription: conf.ShowDescription,
			Language:        conf.Language,
		},
		Location: loc,
		Options: summary.Options{
			Mode:           mode,
			Language:       conf.Language,
			WordBudget:     conf.WordBudget,
			SentenceBudget: conf.SentenceBudget,
		},
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "config.yaml", "Path to config file")
	flag.BoolVar(&cfg.once, "once", false, "Run one fetch+summarize+synthesize+publish cycle and exit")
	flag.BoolVar(&cfg.skipFeed, "skip-feed", false, "Skip feed.xml regeneration (only write text and audio)")
	flag.BoolVar(&cfg.listCalendars, "list-calendars", false, "Print configured calendars and exit")

	flag.Parse()

	return cfg
}
