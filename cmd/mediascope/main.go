package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/umputun/mediascope/pkg/catalog"
	"github.com/umputun/mediascope/pkg/config"
	"github.com/umputun/mediascope/pkg/match"
	"github.com/umputun/mediascope/pkg/source"
	"github.com/umputun/mediascope/server"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"f" long:"config" env:"CONFIG" default:"config.yml" description:"config file path"`

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

	SetupLog(opts.Debug)

	log.Printf("[INFO] starting mediascope version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	if err := run(ctx, opts); err != nil {
		log.Printf("[ERROR] mediascope failed: %v", err)
		cancel()
		os.Exit(1)
	}

	cancel()
	log.Print("[INFO] shutdown complete")
}

// run wires the clients, matcher, assembler, cache and server together and
// blocks until the context is canceled
func run(ctx context.Context, opts Opts) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// re-setup logging with credentials masked
	SetupLog(opts.Debug, cfg.TMDB.APIKey, cfg.Trakt.ClientID)

	tmdb := source.NewTMDB(source.TMDBParams{
		BaseURL:    cfg.TMDB.BaseURL,
		APIKey:     cfg.TMDB.APIKey,
		Language:   cfg.TMDB.Language,
		Timeout:    cfg.TMDB.Timeout,
		Retries:    cfg.TMDB.Retries,
		MaxResults: cfg.TMDB.MaxResults,
	})

	releases := source.NewReleaseFeed(source.ReleaseFeedParams{
		URL:      cfg.EZTV.FeedURL,
		Timeout:  cfg.EZTV.Timeout,
		Retries:  cfg.EZTV.Retries,
		MaxItems: cfg.EZTV.MaxItems,
	})

	var trending catalog.TrendingClient
	if cfg.Trakt.Enabled {
		trending = source.NewTrakt(source.TraktParams{
			BaseURL:  cfg.Trakt.BaseURL,
			ClientID: cfg.Trakt.ClientID,
			Timeout:  cfg.Trakt.Timeout,
			MaxItems: cfg.Trakt.MaxItems,
		})
		log.Printf("[INFO] trakt trending merge enabled")
	}

	matcher := match.New(match.Config{
		High:          cfg.Match.HighThreshold,
		Low:           cfg.Match.LowThreshold,
		YearTolerance: cfg.Match.YearTolerance,
		YearBonus:     cfg.Match.YearBonus,
	})

	assembler := catalog.New(catalog.Params{
		Metadata:            tmdb,
		Releases:            releases,
		Trending:            trending,
		Matcher:             matcher,
		PageSize:            cfg.Catalogs.PageSize,
		TrendingLimit:       cfg.Catalogs.TrendingLimit,
		LatestWindowDays:    cfg.Catalogs.LatestWindowDays,
		LatestMinVotes:      cfg.Catalogs.LatestMinVotes,
		AnimeMinVotes:       cfg.Catalogs.AnimeMinVotes,
		AnimeGenre:          cfg.Catalogs.AnimeGenre,
		AnimeLanguage:       cfg.Catalogs.AnimeLanguage,
		RecommendedMinVotes: cfg.Catalogs.RecommendedMinVotes,
		FeedScanLimit:       cfg.Catalogs.FeedScanLimit,
	})

	catalogs := catalog.NewCached(assembler, cfg.GetCacheTTL())

	if cfg.Warmer.Enabled {
		warmer := catalog.NewWarmer(catalogs, catalog.WarmerConfig{
			CatalogIDs: cfg.Warmer.Catalogs,
			Interval:   cfg.Warmer.Interval,
		})
		warmer.Start(ctx)
		defer warmer.Stop()
	}

	srv := server.New(cfg, catalogs, tmdb, revision, opts.Debug)
	return srv.Run(ctx)
}

// SetupLog configures the logger, hiding passed secrets from output
func SetupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces}
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

	for _, sec := range secs {
		if sec != "" {
			logOpts = append(logOpts, lgr.Secret(sec))
		}
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
