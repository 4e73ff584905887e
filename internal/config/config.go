// Package config loads the scheduler configuration from YAML with
// GMAIL_SCHEDULER_* environment overrides.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/hal9000y/gmail-scheduler/internal/autoprocess"
	"github.com/hal9000y/gmail-scheduler/internal/availability"
	"github.com/hal9000y/gmail-scheduler/internal/types"
)

// EnvPrefix prefixes every environment override, e.g. GMAIL_SCHEDULER_AUTO_MODE.
const EnvPrefix = "GMAIL_SCHEDULER"

type ClassifierConfig struct {
	Model string `mapstructure:"model" yaml:"model"`
}

type CaptureConfig struct {
	MaxThreads    int           `mapstructure:"max_threads" yaml:"max_threads"`
	RecencyWindow time.Duration `mapstructure:"recency_window" yaml:"recency_window"`
}

type ResolutionConfig struct {
	MaxThreads int `mapstructure:"max_threads" yaml:"max_threads"`
}

type LedgerConfig struct {
	Capacity int `mapstructure:"capacity" yaml:"capacity"`
}

// AvailabilityConfig bounds the free-slot search.
type AvailabilityConfig struct {
	HorizonDays       int           `mapstructure:"horizon_days" yaml:"horizon_days"`
	OpenHour          int           `mapstructure:"open_hour" yaml:"open_hour"`
	CloseHour         int           `mapstructure:"close_hour" yaml:"close_hour"`
	SameDayCutoffHour int           `mapstructure:"same_day_cutoff_hour" yaml:"same_day_cutoff_hour"`
	MaxSlotSpan       time.Duration `mapstructure:"max_slot_span" yaml:"max_slot_span"`
	SlotCount         int           `mapstructure:"slot_count" yaml:"slot_count"`
	DefaultDuration   int           `mapstructure:"default_duration" yaml:"default_duration"`
}

// Config is the full application configuration.
type Config struct {
	Timezone       string             `mapstructure:"timezone" yaml:"timezone"`
	DBPath         string             `mapstructure:"db_path" yaml:"db_path"`
	OAuthTokenFile string             `mapstructure:"oauth_token_file" yaml:"oauth_token_file"`
	CalendarID     string             `mapstructure:"calendar_id" yaml:"calendar_id"`
	LabelPrefix    string             `mapstructure:"label_prefix" yaml:"label_prefix"`
	AutoMode       bool               `mapstructure:"auto_mode" yaml:"auto_mode"`
	SignOffName    string             `mapstructure:"sign_off_name" yaml:"sign_off_name"`
	PollInterval   time.Duration      `mapstructure:"poll_interval" yaml:"poll_interval"`
	LockWait       time.Duration      `mapstructure:"lock_wait" yaml:"lock_wait"`
	LeaseTTL       time.Duration      `mapstructure:"lease_ttl" yaml:"lease_ttl"`
	Classifier     ClassifierConfig   `mapstructure:"classifier" yaml:"classifier"`
	Capture        CaptureConfig      `mapstructure:"capture" yaml:"capture"`
	Resolution     ResolutionConfig   `mapstructure:"resolution" yaml:"resolution"`
	Ledger         LedgerConfig       `mapstructure:"ledger" yaml:"ledger"`
	Availability   AvailabilityConfig `mapstructure:"availability" yaml:"availability"`
}

// Dir returns ~/.config/gmail-scheduler, or the working directory when the
// home directory is unknown.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "gmail-scheduler")
}

// DefaultPath returns the default location of the configuration file.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

func setDefaults(v *viper.Viper) {
	dir := Dir()
	av := availability.DefaultOptions()
	ap := autoprocess.DefaultOptions()

	v.SetDefault("timezone", "UTC")
	v.SetDefault("db_path", filepath.Join(dir, "scheduler.db"))
	v.SetDefault("oauth_token_file", filepath.Join(dir, "token.json"))
	v.SetDefault("calendar_id", "primary")
	v.SetDefault("label_prefix", "Scheduler")
	v.SetDefault("auto_mode", false)
	v.SetDefault("sign_off_name", "")
	v.SetDefault("poll_interval", 5*time.Minute)
	v.SetDefault("lock_wait", ap.LockWait)
	v.SetDefault("lease_ttl", 10*time.Minute)
	v.SetDefault("classifier.model", "gemini-2.5-flash")
	v.SetDefault("capture.max_threads", ap.CaptureMaxThreads)
	v.SetDefault("capture.recency_window", ap.CaptureWindow)
	v.SetDefault("resolution.max_threads", ap.ResolutionMaxThreads)
	v.SetDefault("ledger.capacity", ap.LedgerCapacity)
	v.SetDefault("availability.horizon_days", av.HorizonDays)
	v.SetDefault("availability.open_hour", av.OpenHour)
	v.SetDefault("availability.close_hour", av.CloseHour)
	v.SetDefault("availability.same_day_cutoff_hour", av.SameDayCutoffHour)
	v.SetDefault("availability.max_slot_span", av.MaxSlotSpan)
	v.SetDefault("availability.slot_count", ap.SlotCount)
	v.SetDefault("availability.default_duration", ap.DefaultDuration)
}

// Load reads the configuration at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", types.ErrConfiguration, c.Timezone)
	}
	a := c.Availability
	if a.OpenHour < 0 || a.CloseHour > 24 || a.OpenHour >= a.CloseHour {
		return fmt.Errorf("%w: business hours %d-%d", types.ErrConfiguration, a.OpenHour, a.CloseHour)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll_interval must be positive", types.ErrConfiguration)
	}
	return nil
}

// AvailabilityOptions maps the configuration onto the slot search bounds.
func (c *Config) AvailabilityOptions() availability.Options {
	return availability.Options{
		HorizonDays:       c.Availability.HorizonDays,
		OpenHour:          c.Availability.OpenHour,
		CloseHour:         c.Availability.CloseHour,
		SameDayCutoffHour: c.Availability.SameDayCutoffHour,
		MaxSlotSpan:       c.Availability.MaxSlotSpan,
		Timezone:          c.Timezone,
	}
}

// ProcessorOptions maps the configuration onto the invocation bounds.
func (c *Config) ProcessorOptions() autoprocess.Options {
	return autoprocess.Options{
		CaptureMaxThreads:    c.Capture.MaxThreads,
		CaptureWindow:        c.Capture.RecencyWindow,
		ResolutionMaxThreads: c.Resolution.MaxThreads,
		LedgerCapacity:       c.Ledger.Capacity,
		LockWait:             c.LockWait,
		SlotCount:            c.Availability.SlotCount,
		DefaultDuration:      c.Availability.DefaultDuration,
		Timezone:             c.Timezone,
		Now:                  time.Now,
	}
}

// LoadEnvFile loads variables from path. An empty path loads ./.env when it
// exists.
func LoadEnvFile(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("godotenv.Load failed: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("godotenv.Load(%s) failed: %w", path, err)
	}
	return nil
}

// NewSettingsSource creates a source that re-reads path on every Load.
func NewSettingsSource(path string) *SettingsSource {
	return &SettingsSource{path: path}
}

// SettingsSource snapshots the user settings once per invocation.
type SettingsSource struct {
	path string
}

func (s *SettingsSource) Load(_ context.Context) (types.Settings, error) {
	cfg, err := Load(s.path)
	if err != nil {
		return types.Settings{}, err
	}
	return types.Settings{AutoModeEnabled: cfg.AutoMode, SignOffName: cfg.SignOffName}, nil
}
