package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/doridoridoriand/pingtray/internal/state"
)

// Watcher turns a stream of snapshots into notifications.
type Watcher struct {
	notifier Notifier
	logger   *zap.Logger
}

func NewWatcher(notifier Notifier, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{notifier: notifier, logger: logger}
}

// Run consumes snapshots until the channel closes or ctx ends.
func (w *Watcher) Run(ctx context.Context, snapshots <-chan state.Snapshot) error {
	prev := state.Initial()
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-snapshots:
			if !ok {
				return nil
			}
			if snap.Cycle != 0 && snap.Cycle <= prev.Cycle {
				continue
			}
			for _, ev := range Transitions(prev, snap) {
				if err := w.notifier.Notify(ctx, ev); err != nil {
					w.logger.Warn("notify_failed", zap.String("address", ev.Target.Key()), zap.Error(err))
				}
			}
			prev = snap
		}
	}
}
