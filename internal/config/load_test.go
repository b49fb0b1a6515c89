package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeTempSettings(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, SettingsFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp settings: %v", err)
	}
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	settings, err := Load(filepath.Join(t.TempDir(), "absent.toml"), CLIOverrides{})
	require.NoError(t, err)

	want := DefaultSettings()
	require.Equal(t, want, settings)
	require.Equal(t, 3*time.Minute, settings.Interval)
	require.Equal(t, 5*time.Second, settings.Timeout)
	require.Equal(t, 3, settings.Attempts)
	require.Equal(t, "sites.json", filepath.Base(settings.StorePath))
	require.True(t, settings.Notify)
	require.Empty(t, settings.Listen)
	require.Equal(t, time.Second, settings.StorePoll)
}

func TestLoadReadsTOML(t *testing.T) {
	path := writeTempSettings(t, ""+
		"interval = \"1m\"\n"+
		"timeout = \"2s\"\n"+
		"attempts = 2\n"+
		"retry_delay = \"250ms\"\n"+
		"max_concurrency = 4\n"+
		"store_path = \"/tmp/pingtray/sites.json\"\n"+
		"log_level = \"debug\"\n"+
		"listen = \"9100\"\n"+
		"ui_disable = true\n"+
		"notify = false\n"+
		"store_poll = \"0s\"\n")

	settings, err := Load(path, CLIOverrides{})
	require.NoError(t, err)
	require.Equal(t, time.Minute, settings.Interval)
	require.Equal(t, 2*time.Second, settings.Timeout)
	require.Equal(t, 2, settings.Attempts)
	require.Equal(t, 250*time.Millisecond, settings.RetryDelay)
	require.Equal(t, 4, settings.MaxConcurrency)
	require.Equal(t, "/tmp/pingtray/sites.json", settings.StorePath)
	require.Equal(t, "debug", settings.LogLevel)
	require.Equal(t, ":9100", settings.Listen)
	require.True(t, settings.UIDisable)
	require.False(t, settings.Notify)
	require.Zero(t, settings.StorePoll)
}

func TestLoadMalformedTOML(t *testing.T) {
	path := writeTempSettings(t, "interval = \n")
	_, err := Load(path, CLIOverrides{})
	require.Error(t, err)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	path := writeTempSettings(t, "interval = \"1m\"\nlisten = \"127.0.0.1:9000\"\n")
	t.Setenv("PINGTRAY_INTERVAL", "90s")
	t.Setenv("PINGTRAY_LISTEN", "8080")
	t.Setenv("PINGTRAY_NOTIFY", "false")

	settings, err := Load(path, CLIOverrides{})
	require.NoError(t, err)
	require.Equal(t, 90*time.Second, settings.Interval)
	require.Equal(t, ":8080", settings.Listen)
	require.False(t, settings.Notify)
}

func TestLoadCLIOverridesEverything(t *testing.T) {
	path := writeTempSettings(t, "interval = \"1m\"\nattempts = 2\n")
	t.Setenv("PINGTRAY_INTERVAL", "90s")

	interval := 30 * time.Second
	attempts := 5
	listen := "127.0.0.1:9200"
	disable := true
	settings, err := Load(path, CLIOverrides{
		Interval:  &interval,
		Attempts:  &attempts,
		Listen:    &listen,
		UIDisable: &disable,
	})
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, settings.Interval)
	require.Equal(t, 5, settings.Attempts)
	require.Equal(t, "127.0.0.1:9200", settings.Listen)
	require.True(t, settings.UIDisable)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	cases := map[string]string{
		"zero interval":          "interval = \"0s\"\n",
		"timeout above interval": "interval = \"1s\"\ntimeout = \"2s\"\n",
		"no attempts":            "attempts = 0\n",
		"zero concurrency":       "max_concurrency = 0\n",
		"unknown log level":      "log_level = \"verbose\"\n",
		"negative store poll":    "store_poll = \"-1s\"\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeTempSettings(t, content), CLIOverrides{})
			require.ErrorIs(t, err, ErrInvalidSettings)
		})
	}
}

func TestLoadBadEnvironmentValue(t *testing.T) {
	t.Setenv("PINGTRAY_ATTEMPTS", "many")
	_, err := Load("", CLIOverrides{})
	require.Error(t, err)
}

func TestNormalizeListen(t *testing.T) {
	cases := map[string]string{
		"":               "",
		"9100":           ":9100",
		" 9100 ":         ":9100",
		":9100":          ":9100",
		"localhost:9100": "localhost:9100",
	}
	for in, want := range cases {
		require.Equal(t, want, normalizeListen(in), "normalizeListen(%q)", in)
	}
}
