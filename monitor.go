package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"syscall"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/doridoridoriand/pingtray/internal/config"
	"github.com/doridoridoriand/pingtray/internal/httpapi"
	plog "github.com/doridoridoriand/pingtray/internal/log"
	"github.com/doridoridoriand/pingtray/internal/metrics"
	"github.com/doridoridoriand/pingtray/internal/notify"
	"github.com/doridoridoriand/pingtray/internal/ping"
	"github.com/doridoridoriand/pingtray/internal/probe"
	"github.com/doridoridoriand/pingtray/internal/scheduler"
	"github.com/doridoridoriand/pingtray/internal/session"
	"github.com/doridoridoriand/pingtray/internal/targets"
	"github.com/doridoridoriand/pingtray/internal/ui"
)

// app holds the wired monitor components.
type app struct {
	logger    *zap.Logger
	settings  config.Settings
	store     *targets.Store
	scheduler *scheduler.Scheduler
	session   *session.Session
	recorder  *metrics.Recorder
	notifier  notify.Notifier
}

func newApp(settings config.Settings, prober scheduler.Prober, logger *zap.Logger) (*app, error) {
	store := targets.NewStore(settings.StorePath)
	list, err := store.Load()
	plog.LogStoreLoad(logger, store.Path(), len(list), err)
	if err != nil {
		return nil, fmt.Errorf("load targets: %w", err)
	}

	recorder := metrics.NewRecorder()
	sched := scheduler.NewScheduler(settings, store, prober, logger, scheduler.WithObserver(recorder))

	notifiers := notify.Multi{notify.LogNotifier{Logger: logger}}
	if settings.Notify {
		notifiers = append(notifiers, notify.NewCommandNotifier(settings.NotifyCommand))
	}

	return &app{
		logger:    logger,
		settings:  settings,
		store:     store,
		scheduler: sched,
		session:   session.New(store, sched, logger),
		recorder:  recorder,
		notifier:  notifiers,
	}, nil
}

// run starts every component and blocks until ctx ends or the user quits.
func (a *app) run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	watchCh, stopWatch := a.scheduler.Subscribe(4)
	defer stopWatch()
	g.Go(func() error {
		return notify.NewWatcher(a.notifier, a.logger).Run(gctx, watchCh)
	})

	if a.settings.Listen != "" {
		handler := httpapi.NewServer(a.logger, a.session, a.scheduler, a.recorder.Handler()).Router()
		g.Go(func() error {
			return httpapi.Serve(gctx, a.settings.Listen, handler, a.logger)
		})
	}

	if !a.settings.UIDisable {
		uiCh, stopUI := a.scheduler.Subscribe(1)
		defer stopUI()
		indicator := ui.New(a.scheduler.ProbeNow)
		g.Go(func() error {
			return indicator.Run(gctx, uiCh)
		})
	}

	if a.settings.StorePoll > 0 {
		g.Go(func() error {
			return a.store.Watch(gctx, a.settings.StorePoll, func() {
				a.logger.Debug("store_changed", zap.String("path", a.store.Path()))
				a.scheduler.ProbeNow()
			})
		})
	}

	g.Go(func() error {
		return a.scheduler.Run(gctx)
	})

	a.logger.Info("monitor_started",
		zap.String("store", a.store.Path()),
		zap.Duration("interval", a.settings.Interval),
		zap.Duration("timeout", a.settings.Timeout),
		zap.Int("attempts", a.settings.Attempts),
		zap.String("listen", a.settings.Listen),
	)
	err := g.Wait()
	a.logger.Info("monitor_stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func monitor(ctx context.Context, settings config.Settings, stderr io.Writer) (err error) {
	logger, err := plog.New(plog.Options{Dir: settings.LogDir, Level: settings.LogLevel, Console: settings.UIDisable})
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, ignoreSyncError(logger.Sync()))
	}()

	runner := probe.NewRunner(
		ping.NewHostPinger(),
		ping.NewHTTPPinger(version),
		probe.WithAttempts(settings.Attempts),
		probe.WithRetryDelay(settings.RetryDelay),
	)
	a, err := newApp(settings, runner, logger)
	if err != nil {
		return err
	}
	if settings.UIDisable {
		fmt.Fprintf(stderr, "monitoring targets from %s (Ctrl-C to stop)\n", a.store.Path())
	}
	return a.run(ctx)
}

// ignoreSyncError drops the error fsync reports for terminals and pipes.
func ignoreSyncError(err error) error {
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EBADF) {
		return nil
	}
	return err
}
