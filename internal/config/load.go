package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// ErrInvalidSettings is returned when the merged settings fail validation.
var ErrInvalidSettings = errors.New("invalid settings")

var validate = validator.New()

// Load merges defaults, the TOML file at path (a missing file is fine), the
// PINGTRAY_* environment and overrides, in that order, then validates.
func Load(path string, overrides CLIOverrides) (Settings, error) {
	settings := DefaultSettings()

	if path != "" {
		if _, err := toml.DecodeFile(path, &settings); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, fmt.Errorf("read settings %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &settings); err != nil {
		return Settings{}, fmt.Errorf("read environment: %w", err)
	}

	applyCLIOverrides(&settings, overrides)
	settings.Listen = normalizeListen(settings.Listen)
	settings.LogLevel = strings.ToLower(strings.TrimSpace(settings.LogLevel))

	if err := Validate(settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// Validate checks settings against their constraints.
func Validate(settings Settings) error {
	err := validate.Struct(settings)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fmt.Sprintf("%s failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(problems, "; "))
}

func applyCLIOverrides(settings *Settings, overrides CLIOverrides) {
	if overrides.Interval != nil {
		settings.Interval = *overrides.Interval
	}
	if overrides.Timeout != nil {
		settings.Timeout = *overrides.Timeout
	}
	if overrides.Attempts != nil {
		settings.Attempts = *overrides.Attempts
	}
	if overrides.MaxConcurrency != nil {
		settings.MaxConcurrency = *overrides.MaxConcurrency
	}
	if overrides.StorePath != nil {
		settings.StorePath = *overrides.StorePath
	}
	if overrides.LogDir != nil {
		settings.LogDir = *overrides.LogDir
	}
	if overrides.LogLevel != nil {
		settings.LogLevel = *overrides.LogLevel
	}
	if overrides.Listen != nil {
		settings.Listen = *overrides.Listen
	}
	if overrides.UIDisable != nil {
		settings.UIDisable = *overrides.UIDisable
	}
	if overrides.Notify != nil {
		settings.Notify = *overrides.Notify
	}
}

// normalizeListen turns a bare port into ":port".
func normalizeListen(value string) string {
	value = strings.TrimSpace(value)
	if isDigits(value) {
		return ":" + value
	}
	return value
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
