package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultCalendarName    = "Test"
	DefaultCredentialsPath = "credentials.json"
	DefaultTokenPath       = "tokencache.json"
	DefaultPublisher       = "json"
	DefaultRefreshCron     = "*/15 * * * *"
	DefaultListen          = "127.0.0.1:8080"
)

// Publishers lists the accepted values of Config.Publisher.
var Publishers = []string{"json", "ics", "google", "caldav"}

// CalDAVConfig describes the CalDAV server used by the caldav publisher.
type CalDAVConfig struct {
	URL      string `yaml:"url" json:"url"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
	// Calendar is the display name or path of the target collection.
	// Empty falls back to Config.CalendarName.
	Calendar string `yaml:"calendar,omitempty" json:"calendar,omitempty"`
}

// BasicAuthConfig protects the watch-mode HTTP API (except /health).
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
}

// Config is the top-level application configuration.
type Config struct {
	// FeedURL is the ICS subscription endpoint.
	FeedURL string `yaml:"feed_url" json:"feed_url"`

	// CalendarName is the summary of the remote calendar events are
	// published to.
	CalendarName string `yaml:"calendar_name" json:"calendar_name"`

	// CredentialsPath points at the OAuth client secret JSON.
	CredentialsPath string `yaml:"credentials_path" json:"credentials_path"`

	// TokenPath is where the OAuth token obtained by `login` is cached.
	TokenPath string `yaml:"token_path" json:"token_path"`

	// CacheDir enables the conditional-GET feed cache when set.
	CacheDir string `yaml:"cache_dir,omitempty" json:"cache_dir,omitempty"`

	// Publisher selects where normalized events go:
	//   - "json" (default): pretty JSON array to Output or stdout
	//   - "ics": iCalendar file at Output or stdout
	//   - "google": Google Calendar named CalendarName
	//   - "caldav": CalDAV collection, see CalDAV
	Publisher string `yaml:"publisher" json:"publisher"`

	// Output is the destination file of the json/ics publishers.
	Output string `yaml:"output,omitempty" json:"output,omitempty"`

	// AllDay is the policy for date-only events: "keep" or "compare".
	AllDay string `yaml:"all_day" json:"all_day"`

	// Timezone is the IANA zone that defines "today" for the future
	// filter. Empty means the host's local zone.
	Timezone string `yaml:"timezone,omitempty" json:"timezone,omitempty"`

	// RefreshCron is the watch-mode schedule (e.g. "*/15 * * * *").
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Listen is the watch-mode HTTP address.
	Listen string `yaml:"listen" json:"listen"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	CalDAV *CalDAVConfig `yaml:"caldav,omitempty" json:"caldav,omitempty"`

	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		CalendarName:    DefaultCalendarName,
		CredentialsPath: DefaultCredentialsPath,
		TokenPath:       DefaultTokenPath,
		Publisher:       DefaultPublisher,
		AllDay:          "keep",
		RefreshCron:     DefaultRefreshCron,
		Listen:          DefaultListen,
		LogLevel:        "info",
	}
}

// Normalize fills in missing values so partially-filled configs behave
// like the defaults.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.CalendarName == "" {
		c.CalendarName = d.CalendarName
	}
	if c.CredentialsPath == "" {
		c.CredentialsPath = d.CredentialsPath
	}
	if c.TokenPath == "" {
		c.TokenPath = d.TokenPath
	}
	if c.Publisher == "" {
		c.Publisher = d.Publisher
	}
	if c.AllDay == "" {
		c.AllDay = d.AllDay
	}
	if c.RefreshCron == "" {
		c.RefreshCron = d.RefreshCron
	}
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

// Validate reports settings that cannot work at all. It does not check that
// the feed is reachable or credentials exist.
func (c *Config) Validate() error {
	var errs []error
	if c.FeedURL == "" {
		errs = append(errs, errors.New("feed_url is required"))
	}
	known := false
	for _, p := range Publishers {
		if c.Publisher == p {
			known = true
			break
		}
	}
	if !known {
		errs = append(errs, fmt.Errorf("unknown publisher %q", c.Publisher))
	}
	if c.Publisher == "caldav" && (c.CalDAV == nil || c.CalDAV.URL == "") {
		errs = append(errs, errors.New("publisher caldav requires caldav.url"))
	}
	if c.AllDay != "keep" && c.AllDay != "compare" {
		errs = append(errs, fmt.Errorf("all_day must be keep or compare, got %q", c.AllDay))
	}
	return errors.Join(errs...)
}

// Load reads configuration from the given YAML path.
//
// A missing file is not an error: the defaults are returned and written to
// path (0600) so the user has something to edit.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Still usable in memory; the caller decides.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory (0700) if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".lookout-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func (c *Config) Save(path string) error {
	return Save(path, c)
}
