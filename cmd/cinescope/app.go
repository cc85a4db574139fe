package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/BidyutOffice/cinescope/internal/config"
	"github.com/BidyutOffice/cinescope/internal/detail"
	"github.com/BidyutOffice/cinescope/internal/logger"
	"github.com/BidyutOffice/cinescope/internal/metadata"
	"github.com/BidyutOffice/cinescope/internal/metadata/mock"
	"github.com/BidyutOffice/cinescope/internal/metadata/tmdb"
)

// errReported means the command already printed its failure.
var errReported = errors.New("failure reported")

// options are the flags shared by every command.
type options struct {
	configPath string
	format     string
	region     string
	mock       bool
	verbose    bool
}

func newFlagSet(name string, e *env, opts *options) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.StringVar(&opts.configPath, "config", "", "Path to config file")
	fs.StringVar(&opts.format, "format", "text", "Output format: text, json or yaml")
	fs.StringVar(&opts.region, "region", "", "Watch provider region, overrides detail.region")
	fs.BoolVar(&opts.mock, "mock", false, "Serve fixture movies instead of calling TMDB")
	fs.BoolVar(&opts.verbose, "v", false, "Log at the configured level instead of warn")
	return fs
}

// parse parses args and checks the shared flags.
func parse(fs *flag.FlagSet, opts *options, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	if _, err := formatterFor(opts.format); err != nil {
		fmt.Fprintln(fs.Output(), err)
		return errUsage
	}
	return nil
}

// app is the wiring shared by the one-shot commands.
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	source *metadata.Source
	out    formatter
}

func newApp(e *env, opts *options, sinks ...io.Writer) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	if opts.region != "" {
		region, err := config.NormalizeRegion(opts.region)
		if err != nil {
			return nil, err
		}
		cfg.Detail.Region = region
	}

	level := cfg.Logging.Level
	if !opts.verbose {
		level = "warn"
	}
	log := logger.New(logger.Config{
		Level:      level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
		Console:    e.stderr,
		Sinks:      sinks,
	})

	var client metadata.TMDBClient
	if opts.mock {
		client = mock.NewTMDBClient()
	} else {
		client = tmdb.NewClient(cfg.Metadata.TMDB, log.WithComponent("tmdb"))
	}

	cache := metadata.NewCache(metadata.CacheConfig{
		TTL:      time.Duration(cfg.Cache.TTLMinutes) * time.Minute,
		MaxItems: cfg.Cache.MaxItems,
	})

	out, err := formatterFor(opts.format)
	if err != nil {
		return nil, err
	}
	out.imageURL = client.GetImageURL

	return &app{
		cfg:    cfg,
		log:    log,
		source: metadata.NewSource(client, cache, log.WithComponent("metadata")),
		out:    out,
	}, nil
}

func (a *app) detailOptions(extra ...detail.Option) []detail.Option {
	opts := []detail.Option{
		detail.WithRegion(a.cfg.Detail.Region),
		detail.WithVideoSite(a.cfg.Detail.VideoSite),
		detail.WithTimeout(time.Duration(a.cfg.Detail.TimeoutSeconds) * time.Second),
	}
	return append(opts, extra...)
}

func (a *app) aggregator(extra ...detail.Option) *detail.Aggregator {
	return detail.New(a.source, a.log.Logger, a.detailOptions(extra...)...)
}

func (a *app) close() {
	a.log.Close()
}
