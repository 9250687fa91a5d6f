package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"daycal/internal/holiday"
)

// HolidayConfig is one extra fixed holiday, keyed by day and month
// (year-independent).
type HolidayConfig struct {
	Day   int    `yaml:"day" json:"day"`
	Month int    `yaml:"month" json:"month"`
	Name  string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// DataFile is the path of the JSON events file.
	DataFile string `yaml:"data_file" json:"data_file"`

	// WeekStart controls the first column of the month grid.
	// Supported values: "monday" (default) or "sunday".
	WeekStart string `yaml:"week_start" json:"week_start"`

	// ShowHolidays toggles the holiday layer of day classification.
	ShowHolidays bool `yaml:"show_holidays" json:"show_holidays"`

	// Holidays are extra fixed holidays merged over the built-in
	// table (same day+month overrides the built-in name).
	Holidays []HolidayConfig `yaml:"holidays" json:"holidays"`

	// BackupCron is a cron-style schedule for data file snapshots
	// (e.g. "0 3 * * *"). Empty disables scheduled backups.
	BackupCron string `yaml:"backup" json:"backup"`

	// BackupKeep is how many snapshots to retain.
	BackupKeep int `yaml:"backup_keep" json:"backup_keep"`

	// LogLevel is one of "debug", "info", "error".
	LogLevel string `yaml:"log_level" json:"log_level"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:       "127.0.0.1:8080",
		DataFile:     "./data/events.json",
		WeekStart:    "monday",
		ShowHolidays: true,
		Holidays:     []HolidayConfig{},
		BackupCron:   "0 3 * * *",
		BackupKeep:   14,
		LogLevel:     "info",
		BasicAuth:    nil,
	}
}

// Normalize fills in missing/zero values with defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.DataFile == "" {
		c.DataFile = "./data/events.json"
	}
	switch c.WeekStart {
	case "monday", "sunday":
		// ok
	default:
		c.WeekStart = "monday"
	}
	if c.Holidays == nil {
		c.Holidays = []HolidayConfig{}
	}
	if c.BackupKeep <= 0 {
		c.BackupKeep = 14
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// WeekStartDay maps the configured week start to a time.Weekday.
func (c *Config) WeekStartDay() time.Weekday {
	if c.WeekStart == "sunday" {
		return time.Sunday
	}
	return time.Monday
}

// HolidayEntries converts the configured extra holidays into table
// entries. The table itself rejects entries that do not name a real
// (day, month).
func (c *Config) HolidayEntries() []holiday.Entry {
	entries := make([]holiday.Entry, 0, len(c.Holidays))
	for _, h := range c.Holidays {
		entries = append(entries, holiday.Entry{
			Month: time.Month(h.Month),
			Day:   h.Day,
			Name:  h.Name,
		})
	}
	return entries
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written there
// (creating the parent directory) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Return cfg with the error so the caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with
// 0600 permissions.
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

	tmp, err := os.CreateTemp(dir, ".daycal-config-*.tmp")
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
