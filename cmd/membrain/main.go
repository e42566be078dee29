package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"membrain/pkg/collector"
	"membrain/pkg/config"
	"membrain/pkg/db"
	"membrain/pkg/lang"
	"membrain/pkg/pipeline"
	"membrain/pkg/vision"
	"membrain/server"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"c" long:"config" env:"CONFIG" default:"config.yml" description:"config file"`
	Once   bool   `long:"once" description:"run one ingestion pass and exit, regardless of configured interval"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	setupLog(opts.Debug)

	log.Printf("[INFO] starting membrain version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	err := run(ctx, opts)
	cancel()

	if err != nil {
		log.Printf("[ERROR] membrain failed: %v", err)
		os.Exit(1)
	}

	log.Print("[INFO] shutdown complete")
}

// run wires the pipeline together and drives it until done or canceled.
// Everything that can fail here is process-fatal and happens before the
// first batch starts.
func run(ctx context.Context, opts Opts) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := db.New(db.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	decomposer, err := lang.New()
	if err != nil {
		return fmt.Errorf("init decomposer: %w", err)
	}

	identifier := vision.NewExtractor(cfg.Fetch.Timeout, cfg.Fetch.UserAgent)

	runner := pipeline.New(makeCollectors(cfg), identifier, decomposer, store, pipeline.Config{
		BatchSize:  cfg.Ingest.BatchSize,
		MaxWorkers: cfg.Ingest.MaxWorkers,
	})

	if cfg.Server.Enabled {
		srv := server.New(cfg, runner, revision, opts.Debug)
		go func() {
			if err := srv.Run(ctx); err != nil {
				log.Printf("[WARN] status server failed: %v", err)
			}
		}()
	}

	if opts.Once || cfg.Ingest.Interval == 0 {
		return runner.Run(ctx)
	}

	// interval mode: re-run the task graph until canceled
	ticker := time.NewTicker(cfg.Ingest.Interval)
	defer ticker.Stop()

	if err := runner.Run(ctx); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := runner.Run(ctx); err != nil {
				return err
			}
		}
	}
}

// makeCollectors builds the closed set of collector variants from config:
// one reddit collector per configured listing over a shared client, plus one
// collector per configured RSS feed.
func makeCollectors(cfg *config.Config) []collector.Collector {
	client := collector.NewRedditClient(cfg.Reddit.ClientID, cfg.Reddit.ClientSecret,
		cfg.Reddit.UserAgent, cfg.Fetch.Timeout)

	var collectors []collector.Collector
	for _, listing := range cfg.Reddit.Listings {
		switch listing {
		case "hot":
			collectors = append(collectors, collector.NewRedditHot(client, cfg.Reddit.Subreddit))
		case "rising":
			collectors = append(collectors, collector.NewRedditRising(client, cfg.Reddit.Subreddit))
		case "top":
			collectors = append(collectors, collector.NewRedditTop(client, cfg.Reddit.Subreddit))
		}
	}

	for _, feed := range cfg.Feeds {
		collectors = append(collectors, collector.NewRSS(feed.Name, feed.URL,
			cfg.Fetch.UserAgent, cfg.Fetch.Timeout))
	}

	return collectors
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
