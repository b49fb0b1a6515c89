package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	appName          = "pingtray"
	SettingsFileName = "pingtray.toml"
	EnvPrefix        = "pingtray"
)

// Settings holds runtime settings merged from defaults, the TOML file, the
// environment and CLI flags.
type Settings struct {
	Interval       time.Duration `toml:"interval" envconfig:"INTERVAL" validate:"gt=0"`
	Timeout        time.Duration `toml:"timeout" envconfig:"TIMEOUT" validate:"gt=0,ltefield=Interval"`
	Attempts       int           `toml:"attempts" envconfig:"ATTEMPTS" validate:"min=1,max=10"`
	RetryDelay     time.Duration `toml:"retry_delay" envconfig:"RETRY_DELAY" validate:"gte=0"`
	MaxConcurrency int           `toml:"max_concurrency" envconfig:"MAX_CONCURRENCY" validate:"min=1,max=1024"`
	StorePath      string        `toml:"store_path" envconfig:"STORE_PATH" validate:"required"`
	LogDir         string        `toml:"log_dir" envconfig:"LOG_DIR"`
	LogLevel       string        `toml:"log_level" envconfig:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	Listen         string        `toml:"listen" envconfig:"LISTEN"`
	UIDisable      bool          `toml:"ui_disable" envconfig:"UI_DISABLE"`
	Notify         bool          `toml:"notify" envconfig:"NOTIFY"`
	NotifyCommand  string        `toml:"notify_command" envconfig:"NOTIFY_COMMAND"`

	// StorePoll is how often a running monitor checks the targets file for
	// edits made outside its own session. Zero disables the check.
	StorePoll time.Duration `toml:"store_poll" envconfig:"STORE_POLL" validate:"gte=0"`
}

// CLIOverrides holds optional CLI values that override every other source.
type CLIOverrides struct {
	Interval       *time.Duration
	Timeout        *time.Duration
	Attempts       *int
	MaxConcurrency *int
	StorePath      *string
	LogDir         *string
	LogLevel       *string
	Listen         *string
	UIDisable      *bool
	Notify         *bool
}

// DefaultDir is the per-user directory holding the targets file, settings and logs.
func DefaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "." + appName
	}
	return filepath.Join(dir, appName)
}

// DefaultSettingsPath returns where the settings file is looked up by default.
func DefaultSettingsPath() string {
	return filepath.Join(DefaultDir(), SettingsFileName)
}

// DefaultSettings returns baseline settings used before any source is applied.
func DefaultSettings() Settings {
	dir := DefaultDir()
	return Settings{
		Interval:       3 * time.Minute,
		Timeout:        5 * time.Second,
		Attempts:       3,
		RetryDelay:     500 * time.Millisecond,
		MaxConcurrency: 16,
		StorePath:      filepath.Join(dir, "sites.json"),
		StorePoll:      time.Second,
		LogDir:         dir,
		LogLevel:       "info",
		Notify:         true,
		NotifyCommand:  "notify-send",
	}
}
