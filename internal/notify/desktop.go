package notify

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CommandNotifier shows desktop notifications through a notify-send compatible
// command.
type CommandNotifier struct {
	Command string
	Expire  time.Duration
	// run executes the command; replaced in tests.
	run func(ctx context.Context, name string, args ...string) error
}

// NewCommandNotifier returns a notifier using command, or notify-send when empty.
func NewCommandNotifier(command string) *CommandNotifier {
	if command == "" {
		command = "notify-send"
	}
	return &CommandNotifier{Command: command, Expire: 5 * time.Second, run: runCommand}
}

func (n *CommandNotifier) Notify(ctx context.Context, ev Event) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := n.run(ctx, n.Command, n.args(ev)...); err != nil {
		return fmt.Errorf("desktop notification: %w", err)
	}
	return nil
}

func (n *CommandNotifier) args(ev Event) []string {
	urgency, icon := "critical", "network-error"
	if ev.Up {
		urgency, icon = "normal", "network-transmit-receive"
	}
	return []string{
		"-a", "pingtray",
		"-u", urgency,
		"-t", fmt.Sprintf("%d", n.Expire.Milliseconds()),
		"-i", icon,
		ev.Title(),
		ev.Message(),
	}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}
