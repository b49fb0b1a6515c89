package ping

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"
)

var timePattern = regexp.MustCompile(`time[=<]([0-9.]+)\s*ms`)

// ExternalPinger invokes the system ping command for environments without raw socket access.
type ExternalPinger struct {
	command string
}

// NewExternalPinger returns a ping implementation that shells out to ping.
func NewExternalPinger() *ExternalPinger {
	return &ExternalPinger{command: "ping"}
}

// Ping runs one echo through the system ping command and parses the RTT from stdout.
func (p *ExternalPinger) Ping(ctx context.Context, addr string, timeout time.Duration) Result {
	ctx, cancel := context.WithDeadline(ctx, effectiveDeadline(ctx, timeout))
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, p.command, pingArgs(addr, timeout)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return Result{Error: fmt.Errorf("%w: %w", ErrUnavailable, err)}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{Error: fmt.Errorf("ping timeout: %w", ctxErr)}
		}
		return Result{Error: fmt.Errorf("external ping failed: %w", err), Detail: failureDetail(out)}
	}

	rtt := parseRTT(out)
	if rtt == 0 {
		rtt = time.Since(start)
	}
	return Result{Success: true, RTT: rtt}
}

func pingArgs(addr string, timeout time.Duration) []string {
	switch runtime.GOOS {
	case "darwin":
		timeoutMs := max(100, int(timeout.Milliseconds()))
		return []string{"-n", "-c", "1", "-W", strconv.Itoa(timeoutMs), addr}
	default:
		timeoutSec := max(1, int(timeout.Seconds()+0.5))
		return []string{"-n", "-c", "1", "-W", strconv.Itoa(timeoutSec), addr}
	}
}

// failureDetail maps the diagnostics printed by the common ping
// implementations to the short details shown next to a target.
func failureDetail(output []byte) string {
	text := strings.ToLower(string(output))
	switch {
	case strings.Contains(text, "unknown host"),
		strings.Contains(text, "name or service not known"),
		strings.Contains(text, "cannot resolve"),
		strings.Contains(text, "could not find host"):
		return "unknown host"
	case strings.Contains(text, "unreachable"):
		return "unreachable"
	default:
		return ""
	}
}

func parseRTT(output []byte) time.Duration {
	matches := timePattern.FindSubmatch(output)
	if len(matches) < 2 {
		return 0
	}
	value, err := strconv.ParseFloat(string(matches[1]), 64)
	if err != nil {
		return 0
	}
	return time.Duration(value * float64(time.Millisecond))
}
