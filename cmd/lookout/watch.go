package main

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/spf13/cobra"

	"github.com/jdhoffa/lookout-g/internal/config"
	"github.com/jdhoffa/lookout-g/internal/ics"
	appLog "github.com/jdhoffa/lookout-g/internal/log"
	"github.com/jdhoffa/lookout-g/internal/pipeline"
	"github.com/jdhoffa/lookout-g/internal/scheduler"
	"github.com/jdhoffa/lookout-g/internal/web"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Refresh on a schedule and serve the last result over HTTP",
	Long: `watch runs a cycle immediately, then again on the config's refresh
schedule. The config file is reloaded when it changes; listen and
basic_auth changes need a restart.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := configPath
		if path == "" {
			path = defaultWatchConfig
		}
		return watch(cmd.Context(), path, cmd)
	},
}

func watch(ctx context.Context, path string, cmd *cobra.Command) error {
	watcher, err := config.NewWatcher(path)
	if err != nil {
		return err
	}
	effective := func() *config.Config {
		c := *watcher.Config()
		flags.apply(&c)
		c.Normalize()
		return &c
	}

	cfg := effective()
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := scheduler.Validate(cfg.RefreshCron); err != nil {
		return err
	}
	appLog.Info("lookout watching",
		"version", version,
		"config", path,
		"feed", ics.RedactURL(cfg.FeedURL),
		"publisher", cfg.Publisher,
		"refresh", cfg.RefreshCron,
		"listen", cfg.Listen,
	)

	// One cycle at a time, whether triggered by cron or the API.
	var runMu sync.Mutex
	refresh := func(ctx context.Context) (*pipeline.Report, error) {
		runMu.Lock()
		defer runMu.Unlock()
		c := effective()
		return runOnce(ctx, c, ics.NewFetcher(c.CacheDir), cmd.OutOrStdout())
	}

	srv := web.NewServer(cfg.BasicAuth, refresh)
	sched := scheduler.New(nil, func(ctx context.Context) {
		rep, err := refresh(ctx)
		srv.Record(rep, err)
		if err != nil {
			appLog.Error("scheduled refresh failed", err)
		}
	})

	watcher.OnChange(func(*config.Config) {
		c := effective()
		appLog.SetLevel(appLog.ParseLevel(c.LogLevel))
		if err := sched.Reschedule(c.RefreshCron); err != nil {
			appLog.Error("keeping previous schedule", err)
		}
	})
	stopWatch, err := watcher.Watch()
	if err != nil {
		appLog.Error("config hot reload disabled", err, "path", path)
	} else {
		defer stopWatch()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srvErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe(ctx, cfg.Listen)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("http server stopped", err)
			cancel()
		}
		srvErr <- err
	}()

	rep, err := refresh(ctx)
	srv.Record(rep, err)
	if err != nil {
		appLog.Error("initial refresh failed", err)
	}

	if err := sched.Start(ctx, cfg.RefreshCron); err != nil {
		return err
	}
	if err := <-srvErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	appLog.Info("lookout exiting")
	return nil
}
