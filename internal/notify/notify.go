package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/doridoridoriand/pingtray/internal/probe"
	"github.com/doridoridoriand/pingtray/internal/state"
	"github.com/doridoridoriand/pingtray/internal/targets"
)

// Event is a reachability change of one target between two cycles.
type Event struct {
	Target  targets.Target
	Outcome probe.Outcome
	Up      bool
	At      time.Time
}

// Title is the short headline for the event.
func (e Event) Title() string {
	if e.Up {
		return "Target back online"
	}
	return "Target offline"
}

// Message is the notification body.
func (e Event) Message() string {
	if e.Up {
		return fmt.Sprintf("%s is back online.", e.Target.DisplayName())
	}
	return fmt.Sprintf("%s went OFFLINE!", e.Target.DisplayName())
}

type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) error {
	var errs error
	for _, n := range m {
		if n == nil {
			continue
		}
		errs = multierr.Append(errs, n.Notify(ctx, ev))
	}
	return errs
}

// Transitions lists the targets whose reachability differs between prev and
// next. Nothing is reported when prev is the initial snapshot. Targets new in
// next are reported with their current state.
func Transitions(prev, next state.Snapshot) []Event {
	if prev.Initializing() || next.Initializing() {
		return nil
	}
	var events []Event
	for _, entry := range next.Entries() {
		before, known := prev.PerTarget[entry.Target.Key()]
		if known && before.Reachable == entry.Outcome.Reachable {
			continue
		}
		events = append(events, Event{
			Target:  entry.Target,
			Outcome: entry.Outcome,
			Up:      entry.Outcome.Reachable,
			At:      next.LastUpdated,
		})
	}
	return events
}
