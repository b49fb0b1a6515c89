package ping

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable marks failures to run the check mechanism itself (no raw
// socket, no ping binary, malformed request), as opposed to an unreachable host.
var ErrUnavailable = errors.New("reachability check unavailable")

// Result captures a single reachability check.
type Result struct {
	RTT     time.Duration
	Success bool
	// Detail is a short human-readable summary such as "HTTP 200".
	Detail string
	Error  error
}

// Pinger attempts to reach addr within timeout.
type Pinger interface {
	Ping(ctx context.Context, addr string, timeout time.Duration) Result
}

// NewHostPinger returns the default host checker: raw ICMP, falling back to the
// system ping command when raw sockets are not permitted.
func NewHostPinger() Pinger {
	return NewFallbackPinger(NewICMPPinger(), NewExternalPinger())
}

func effectiveDeadline(ctx context.Context, timeout time.Duration) time.Time {
	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		return ctxDeadline
	}
	return deadline
}
