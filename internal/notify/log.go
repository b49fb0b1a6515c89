package notify

import (
	"context"

	"go.uber.org/zap"

	plog "github.com/doridoridoriand/pingtray/internal/log"
)

// LogNotifier writes transitions to the application log.
type LogNotifier struct {
	Logger *zap.Logger
}

func (n LogNotifier) Notify(ctx context.Context, ev Event) error {
	fields := []zap.Field{plog.Target(ev.Target), zap.String("detail", ev.Outcome.Detail)}
	if ev.Up {
		n.Logger.Info("target_up", fields...)
	} else {
		n.Logger.Warn("target_down", fields...)
	}
	return nil
}
