package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/doridoridoriand/pingtray/internal/cli"
	"github.com/doridoridoriand/pingtray/internal/config"
	plog "github.com/doridoridoriand/pingtray/internal/log"
	"github.com/doridoridoriand/pingtray/internal/session"
	"github.com/doridoridoriand/pingtray/internal/targets"
)

const version = "0.3.0"

type flagValues struct {
	settingsPath   cli.OptionalString
	storePath      cli.OptionalString
	interval       cli.OptionalDuration
	timeout        cli.OptionalDuration
	attempts       cli.OptionalInt
	maxConcurrency cli.OptionalInt
	listen         cli.OptionalString
	logLevel       cli.OptionalString
	logDir         cli.OptionalString
	noUI           cli.OptionalBool
	noNotify       cli.OptionalBool
	configMode     bool
	list           bool
	version        bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pingtray: %v\n", err)
		os.Exit(1)
	}
}

func newFlagSet(stderr io.Writer) (*flag.FlagSet, *flagValues) {
	var f flagValues
	fs := flag.NewFlagSet("pingtray", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.Var(&f.settingsPath, "settings", "settings file (default "+config.DefaultSettingsPath()+")")
	fs.Var(&f.storePath, "store", "targets file (overrides settings)")
	fs.Var(&f.interval, "interval", "time between probe cycles (e.g. 3m)")
	fs.Var(&f.interval, "i", "time between probe cycles (e.g. 3m)")
	fs.Var(&f.timeout, "timeout", "per-target probe timeout")
	fs.Var(&f.timeout, "t", "per-target probe timeout")
	fs.Var(&f.attempts, "attempts", "checks per target before it is reported down")
	fs.Var(&f.maxConcurrency, "max-concurrency", "max concurrent probes")
	fs.Var(&f.listen, "listen", "HTTP API listen address (e.g. :9100)")
	fs.Var(&f.logLevel, "log-level", "debug|info|warn|error")
	fs.Var(&f.logDir, "log-dir", "directory for pingtray.log")
	fs.Var(&f.noUI, "no-ui", "disable the terminal indicator (log only)")
	fs.Var(&f.noNotify, "no-notify", "disable desktop notifications")
	fs.BoolVar(&f.configMode, "config", false, "interactive configuration mode")
	fs.BoolVar(&f.list, "list", false, "print monitored targets and exit")
	fs.BoolVar(&f.version, "version", false, "show version")
	fs.BoolVar(&f.version, "v", false, "show version")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: pingtray [options]\n\n")
		fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
	}
	return fs, &f
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs, f := newFlagSet(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	if f.version {
		fmt.Fprintf(stdout, "pingtray version %s\n", version)
		return nil
	}

	settingsPath := config.DefaultSettingsPath()
	if v, ok := f.settingsPath.Value(); ok {
		settingsPath = v
	}
	settings, err := config.Load(settingsPath, buildOverrides(f))
	if err != nil {
		return err
	}

	switch {
	case f.list:
		return listTargets(settings, stdout)
	case f.configMode:
		return configure(settings, stdin, stdout)
	default:
		return monitor(ctx, settings, stderr)
	}
}

func buildOverrides(f *flagValues) config.CLIOverrides {
	overrides := config.CLIOverrides{
		Interval:       f.interval.Ptr(),
		Timeout:        f.timeout.Ptr(),
		Attempts:       f.attempts.Ptr(),
		MaxConcurrency: f.maxConcurrency.Ptr(),
		StorePath:      f.storePath.Ptr(),
		LogDir:         f.logDir.Ptr(),
		LogLevel:       f.logLevel.Ptr(),
		Listen:         f.listen.Ptr(),
		UIDisable:      f.noUI.Ptr(),
	}
	if v, ok := f.noNotify.Value(); ok {
		notify := !v
		overrides.Notify = &notify
	}
	return overrides
}

func listTargets(settings config.Settings, stdout io.Writer) error {
	list, err := targets.NewStore(settings.StorePath).Load()
	if err != nil {
		return err
	}
	cli.PrintTargets(stdout, list)
	return nil
}

func configure(settings config.Settings, stdin io.Reader, stdout io.Writer) error {
	logger, err := plog.New(plog.Options{Dir: settings.LogDir, Level: settings.LogLevel})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store := targets.NewStore(settings.StorePath)
	list, err := store.Load()
	plog.LogStoreLoad(logger, store.Path(), len(list), err)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "targets file: %s\n", store.Path())
	return cli.RunInteractive(stdin, stdout, session.New(store, nil, logger))
}
