package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jdhoffa/lookout-g/internal/auth"
	"github.com/jdhoffa/lookout-g/internal/ics"
	appLog "github.com/jdhoffa/lookout-g/internal/log"
)

const (
	version = "0.1.0"
	// defaultWatchConfig is used by watch when --config is not given.
	defaultWatchConfig = "lookout.yaml"
)

var (
	configPath string
	flags      overrides
)

var rootCmd = &cobra.Command{
	Use:   "lookout [flags] <ics-url> [calendar-name] [credentials]",
	Short: "Normalize an ICS feed and publish its upcoming events",
	Long: `lookout fetches an iCalendar feed, resolves Windows time zone names to
IANA zones, drops events that already happened and publishes the rest as
JSON, an .ics file, a Google calendar or a CalDAV collection.`,
	Version:       version,
	Args:          cobra.MaximumNArgs(3),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags.fromArgs(args)
		cfg, err := loadConfig(configPath, flags)
		if err != nil {
			return err
		}
		appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))

		rep, err := runOnce(cmd.Context(), cfg, ics.NewFetcher(cfg.CacheDir), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		for _, d := range rep.Result.Diagnostics {
			appLog.Info("feed diagnostic", "detail", d.String())
		}
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login [credentials]",
	Short: "Authorize Google Calendar access and cache the token",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			flags.credentials = args[0]
		}
		cfg, err := loadConfig(configPath, flags)
		if err != nil {
			return err
		}
		if err := auth.Login(cmd.Context(), cfg.CredentialsPath, cfg.TokenPath, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Token saved to %s\n", cfg.TokenPath)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML config file (created with defaults if missing)")
	pf.StringVar(&flags.publisher, "publisher", "", "json, ics, google or caldav")
	pf.StringVar(&flags.output, "output", "", "output file for the json and ics publishers (default stdout)")
	pf.StringVar(&flags.allDay, "all-day", "", "date-only events: keep or compare")
	pf.StringVar(&flags.logLevel, "log-level", "", "debug, info or error")
	pf.StringVar(&flags.cacheDir, "cache-dir", "", "directory for the conditional-GET feed cache")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		appLog.Error("lookout failed", err)
		stop()
		os.Exit(1)
	}
}
