package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jdhoffa/lookout-g/internal/auth"
	"github.com/jdhoffa/lookout-g/internal/config"
	"github.com/jdhoffa/lookout-g/internal/ics"
	"github.com/jdhoffa/lookout-g/internal/pipeline"
	"github.com/jdhoffa/lookout-g/internal/publish"
)

// overrides holds values given on the command line. Empty fields leave the
// config untouched.
type overrides struct {
	feedURL     string
	calendar    string
	credentials string
	publisher   string
	output      string
	allDay      string
	logLevel    string
	cacheDir    string
}

// fromArgs maps `<ics-url> [calendar-name] [credentials]`.
func (o *overrides) fromArgs(args []string) {
	if len(args) > 0 {
		o.feedURL = args[0]
	}
	if len(args) > 1 {
		o.calendar = args[1]
	}
	if len(args) > 2 {
		o.credentials = args[2]
	}
}

func (o overrides) apply(cfg *config.Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.FeedURL, o.feedURL)
	set(&cfg.CalendarName, o.calendar)
	set(&cfg.CredentialsPath, o.credentials)
	set(&cfg.Publisher, o.publisher)
	set(&cfg.Output, o.output)
	set(&cfg.AllDay, o.allDay)
	set(&cfg.LogLevel, o.logLevel)
	set(&cfg.CacheDir, o.cacheDir)
}

// loadConfig returns the defaults when path is empty, otherwise the file at
// path, with o applied on top.
func loadConfig(path string, o overrides) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	o.apply(cfg)
	cfg.Normalize()
	return cfg, nil
}

func buildFilter(cfg *config.Config) (ics.Filter, error) {
	policy, err := ics.ParseAllDayPolicy(cfg.AllDay)
	if err != nil {
		return ics.Filter{}, err
	}
	f := ics.Filter{AllDay: policy}
	if cfg.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return ics.Filter{}, fmt.Errorf("timezone %q: %w", cfg.Timezone, err)
		}
		f.Location = loc
	}
	return f, nil
}

// nopCloser is returned for publishers that hold no resources.
func nopCloser() error { return nil }

// buildPublisher returns the configured publisher and a func that releases
// whatever it opened. stdout receives json/ics output when cfg.Output is
// empty.
func buildPublisher(ctx context.Context, cfg *config.Config, stdout io.Writer) (publish.Publisher, func() error, error) {
	switch cfg.Publisher {
	case "json", "ics":
		w, closeFn := stdout, nopCloser
		if cfg.Output != "" {
			f, err := os.Create(cfg.Output)
			if err != nil {
				return nil, nil, fmt.Errorf("open output: %w", err)
			}
			w, closeFn = f, f.Close
		}
		if cfg.Publisher == "ics" {
			return &publish.ICSFile{W: w}, closeFn, nil
		}
		return &publish.JSON{W: w}, closeFn, nil

	case "google":
		client, err := auth.Client(ctx, cfg.CredentialsPath, cfg.TokenPath)
		if err != nil {
			return nil, nil, err
		}
		g, err := publish.NewGoogle(ctx, client, cfg.CalendarName)
		if err != nil {
			return nil, nil, err
		}
		return g, nopCloser, nil

	case "caldav":
		if cfg.CalDAV == nil {
			return nil, nil, errors.New("caldav publisher selected without caldav settings")
		}
		name := cfg.CalDAV.Calendar
		if name == "" {
			name = cfg.CalendarName
		}
		c, err := publish.NewCalDAV(ctx, cfg.CalDAV.URL, cfg.CalDAV.Username, cfg.CalDAV.Password, name)
		if err != nil {
			return nil, nil, err
		}
		return c, nopCloser, nil
	}
	return nil, nil, fmt.Errorf("unknown publisher %q", cfg.Publisher)
}

// runOnce performs a single cycle with cfg.
func runOnce(ctx context.Context, cfg *config.Config, fetcher pipeline.FeedFetcher, stdout io.Writer) (*pipeline.Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	filter, err := buildFilter(cfg)
	if err != nil {
		return nil, err
	}
	pub, closeFn, err := buildPublisher(ctx, cfg, stdout)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	r := &pipeline.Runner{Fetcher: fetcher, Filter: filter, Publisher: pub}
	return r.Run(ctx, ics.Feed{ID: cfg.CalendarName, URL: cfg.FeedURL})
}
