// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Source types. The library is configured separately and registered under SourceLibrary.
const (
	SourceInnertube = "innertube"
	SourceYouTube   = "youtube"
	SourceSpotify   = "spotify"
	SourceLibrary   = "library"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Admin    AdminConfig    `yaml:"admin"`
	Log      LogConfig      `yaml:"log"`
	Playback PlaybackConfig `yaml:"playback"`
	Sources  []SourceConfig `yaml:"sources" validate:"dive"`
	Library  LibraryConfig  `yaml:"library"`
	Store    StoreConfig    `yaml:"store"`
	Report   ReportConfig   `yaml:"report"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr  string      `yaml:"addr" default:":8080" validate:"required"`
	Hooks HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// AdminConfig represents admin-related configuration.
// An empty token leaves the API unauthenticated.
type AdminConfig struct {
	Token string `yaml:"token"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn warning error"`
	Output string `yaml:"output" default:"stdout"`
	File   string `yaml:"file"`
}

// PlaybackConfig represents playback control configuration.
type PlaybackConfig struct {
	DepletionThresholdSec  int    `yaml:"depletion_threshold_sec" default:"30" validate:"gte=0,lte=600"`
	DefaultItemDurationSec int    `yaml:"default_item_duration_sec" default:"180" validate:"gte=1"`
	HistoryLimit           int    `yaml:"history_limit" default:"100" validate:"gte=0"`
	PageSize               int    `yaml:"page_size" default:"20" validate:"gte=1,lte=200"`
	DefaultSource          string `yaml:"default_source"`
	RestoreOnStart         bool   `yaml:"restore_on_start" default:"true"`
	AutoLoadMore           bool   `yaml:"auto_load_more" default:"true"`
	// Filters applied in order to the songs of remote listings.
	Filters []FilterConfig `yaml:"filters" validate:"dive"`
}

// FilterConfig represents one listing filter.
type FilterConfig struct {
	Name     string         `yaml:"name" validate:"required"`
	Settings map[string]any `yaml:"settings"`
}

// DepletionThreshold returns the depletion threshold as a duration.
func (p PlaybackConfig) DepletionThreshold() time.Duration {
	return time.Duration(p.DepletionThresholdSec) * time.Second
}

// DefaultItemDuration returns the assumed duration of items without one.
func (p PlaybackConfig) DefaultItemDuration() time.Duration {
	return time.Duration(p.DefaultItemDurationSec) * time.Second
}

// SourceConfig represents a single listing source.
type SourceConfig struct {
	Name     string         `yaml:"name" validate:"required,excludesall=~/:"`
	Type     string         `yaml:"type" validate:"required,oneof=innertube youtube spotify"`
	Settings map[string]any `yaml:"settings"`
}

// LibraryConfig represents the local music library.
type LibraryConfig struct {
	Root        string   `yaml:"root"`
	Extensions  []string `yaml:"extensions"`
	ScanOnStart bool     `yaml:"scan_on_start" default:"true"`
}

// StoreConfig represents queue persistence configuration. An empty path disables it.
type StoreConfig struct {
	Path         string `yaml:"path"`
	HistoryLimit int    `yaml:"history_limit" default:"200" validate:"gte=1"`
}

// ReportConfig represents error reporting configuration.
type ReportConfig struct {
	SentryDSN   string  `yaml:"sentry_dsn"`
	Environment string  `yaml:"environment" default:"production"`
	SampleRate  float64 `yaml:"sample_rate" default:"1.0" validate:"gte=0,lte=1"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	// Defaults go first so that explicit false and zero values in the file survive.
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
// Credentials are applied to every source of the matching type.
func (c *Config) overrideFromEnv() {
	envSettings := map[string]map[string]string{
		SourceSpotify: {
			"client_id":     os.Getenv("SPOTIFY_CLIENT_ID"),
			"client_secret": os.Getenv("SPOTIFY_CLIENT_SECRET"),
			"refresh_token": os.Getenv("SPOTIFY_REFRESH_TOKEN"),
		},
		SourceYouTube: {
			"api_key": os.Getenv("YOUTUBE_API_KEY"),
		},
	}
	for i := range c.Sources {
		for key, v := range envSettings[c.Sources[i].Type] {
			if v == "" {
				continue
			}
			if c.Sources[i].Settings == nil {
				c.Sources[i].Settings = map[string]any{}
			}
			c.Sources[i].Settings[key] = v
		}
	}

	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		c.Admin.Token = v
	}
	if v := os.Getenv("SENTRY_DSN"); v != "" {
		c.Report.SentryDSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("INNERBEAT_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("INNERBEAT_RESTORE_ON_START"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Playback.RestoreOnStart = b
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if len(c.Sources) == 0 && c.Library.Root == "" {
		return errors.New("at least one source or a library root is required")
	}

	names := make(map[string]bool, len(c.Sources))
	for _, s := range c.Sources {
		if names[s.Name] {
			return errors.Newf("duplicate source name %q", s.Name)
		}
		names[s.Name] = true
	}
	if c.Library.Root != "" {
		if names[SourceLibrary] {
			return errors.Newf("source name %q is reserved for the local library", SourceLibrary)
		}
		names[SourceLibrary] = true
	}

	if c.Playback.DefaultSource != "" && !names[c.Playback.DefaultSource] {
		return errors.Newf("default_source %q is not a configured source", c.Playback.DefaultSource)
	}

	return nil
}

// Source returns the source configuration with the given name.
func (c *Config) Source(name string) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return SourceConfig{}, false
}
