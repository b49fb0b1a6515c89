package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func parseFlags(t *testing.T, args ...string) *flagValues {
	t.Helper()
	fs, f := newFlagSet(io.Discard)
	require.NoError(t, fs.Parse(args))
	return f
}

func TestBuildOverridesAllSet(t *testing.T) {
	f := parseFlags(t,
		"-i", "2m",
		"-t", "3s",
		"-attempts", "4",
		"-max-concurrency", "8",
		"-store", "/tmp/sites.json",
		"-listen", "9100",
		"-log-level", "debug",
		"-log-dir", "/tmp/logs",
		"-no-ui",
		"-no-notify",
	)
	o := buildOverrides(f)

	require.Equal(t, 2*time.Minute, *o.Interval)
	require.Equal(t, 3*time.Second, *o.Timeout)
	require.Equal(t, 4, *o.Attempts)
	require.Equal(t, 8, *o.MaxConcurrency)
	require.Equal(t, "/tmp/sites.json", *o.StorePath)
	require.Equal(t, "9100", *o.Listen)
	require.Equal(t, "debug", *o.LogLevel)
	require.Equal(t, "/tmp/logs", *o.LogDir)
	require.True(t, *o.UIDisable)
	require.False(t, *o.Notify)
}

func TestBuildOverridesNoneSet(t *testing.T) {
	o := buildOverrides(parseFlags(t))
	require.Nil(t, o.Interval)
	require.Nil(t, o.Timeout)
	require.Nil(t, o.Attempts)
	require.Nil(t, o.MaxConcurrency)
	require.Nil(t, o.StorePath)
	require.Nil(t, o.Listen)
	require.Nil(t, o.UIDisable)
	require.Nil(t, o.Notify)
}

func TestBuildOverridesLongAndShortShareValue(t *testing.T) {
	o := buildOverrides(parseFlags(t, "-interval", "90s"))
	require.Equal(t, 90*time.Second, *o.Interval)
}

func isolatedArgs(t *testing.T, extra ...string) ([]string, string) {
	t.Helper()
	dir := t.TempDir()
	store := filepath.Join(dir, "sites.json")
	args := []string{
		"-settings", filepath.Join(dir, "pingtray.toml"),
		"-store", store,
		"-log-dir", filepath.Join(dir, "logs"),
	}
	return append(args, extra...), store
}

func TestRunVersion(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-v"}, nil, &out, io.Discard))
	require.Equal(t, "pingtray version "+version+"\n", out.String())
}

func TestRunRejectsPositionalArguments(t *testing.T) {
	err := run(context.Background(), []string{"sites.json"}, nil, io.Discard, io.Discard)
	require.Error(t, err)
}

func TestRunRejectsInvalidSettings(t *testing.T) {
	args, _ := isolatedArgs(t, "-attempts", "0", "-list")
	err := run(context.Background(), args, nil, io.Discard, io.Discard)
	require.Error(t, err)
}

func TestRunList(t *testing.T) {
	args, store := isolatedArgs(t, "-list")
	require.NoError(t, os.WriteFile(store, []byte(`{"targets":["a.com",{"address":"10.0.0.1","label":"NAS"}]}`), 0o644))

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), args, nil, &out, io.Discard))
	require.Contains(t, out.String(), "a.com")
	require.Contains(t, out.String(), "NAS")
}

func TestRunListCorruptStoreFails(t *testing.T) {
	args, store := isolatedArgs(t, "-list")
	require.NoError(t, os.WriteFile(store, []byte(`{"targets":[42]}`), 0o644))

	err := run(context.Background(), args, nil, io.Discard, io.Discard)
	require.Error(t, err)
}

func TestRunConfigMode(t *testing.T) {
	args, store := isolatedArgs(t, "--config")
	in := strings.NewReader("add a.com Router\nadd 192.0.2.7\nremove 192.0.2.7\nquit\n")

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), args, in, &out, io.Discard))
	require.Contains(t, out.String(), "added Router")

	data, err := os.ReadFile(store)
	require.NoError(t, err)
	require.Equal(t, "{\n  \"targets\": [\n    {\n      \"address\": \"a.com\",\n      \"label\": \"Router\"\n    }\n  ]\n}\n", string(data))
}

func TestRunMonitorCorruptStoreBlocksStartup(t *testing.T) {
	args, store := isolatedArgs(t, "-no-ui", "-no-notify")
	require.NoError(t, os.WriteFile(store, []byte("{broken"), 0o644))

	err := run(context.Background(), args, nil, io.Discard, io.Discard)
	require.Error(t, err)
	require.Contains(t, err.Error(), "load targets")
}

func TestRunMonitorStopsOnCancel(t *testing.T) {
	args, _ := isolatedArgs(t, "-no-ui", "-no-notify")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- run(ctx, args, nil, io.Discard, io.Discard) }()

	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop")
	}
}
