package probe

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/doridoridoriand/pingtray/internal/ping"
	"github.com/doridoridoriand/pingtray/internal/targets"
)

const (
	DefaultAttempts   = 3
	DefaultRetryDelay = 500 * time.Millisecond
	DefaultTimeout    = 5 * time.Second
)

// Runner probes a single target, retrying within one overall timeout.
type Runner struct {
	host       ping.Pinger
	web        ping.Pinger
	attempts   int
	retryDelay time.Duration
	now        func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithAttempts sets how many checks are tried before a target is reported down.
func WithAttempts(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.attempts = n
		}
	}
}

// WithRetryDelay sets the pause between failed attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(r *Runner) {
		if d >= 0 {
			r.retryDelay = d
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRunner returns a Runner using host for hostnames/IPs and web for http(s) URLs.
func NewRunner(host, web ping.Pinger, opts ...Option) *Runner {
	r := &Runner{
		host:       host,
		web:        web,
		attempts:   DefaultAttempts,
		retryDelay: DefaultRetryDelay,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Probe checks target and never takes longer than timeout. Host-level failures
// yield an unreachable outcome and a nil error; only a check that could not be
// run at all returns an *InfraError alongside the unreachable outcome.
func (r *Runner) Probe(ctx context.Context, target targets.Target, timeout time.Duration) (Outcome, error) {
	key := target.Key()
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	pinger := r.pingerFor(target)
	if pinger == nil {
		return Unreachable(key, "unavailable", r.now()), &InfraError{Address: key, Err: errors.New("no checker configured")}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var last ping.Result
	for attempt := 1; attempt <= r.attempts; attempt++ {
		remaining := timeUntilDeadline(ctx, timeout)
		if remaining <= 0 {
			break
		}
		attemptStart := time.Now()
		last = pinger.Ping(ctx, target.Address, remaining)
		if last.Success {
			return r.reachable(key, last, time.Since(attemptStart), timeout), nil
		}
		if errors.Is(last.Error, ping.ErrUnavailable) {
			return Unreachable(key, "unavailable", r.now()), &InfraError{Address: key, Err: last.Error}
		}
		if attempt < r.attempts && !sleepContext(ctx, r.retryDelay) {
			break
		}
	}
	return Unreachable(key, describeFailure(ctx, last), r.now()), nil
}

func (r *Runner) pingerFor(target targets.Target) ping.Pinger {
	if target.IsHTTP() {
		return r.web
	}
	return r.host
}

func (r *Runner) reachable(key string, result ping.Result, measured, timeout time.Duration) Outcome {
	latency := result.RTT
	if latency <= 0 {
		latency = measured
	}
	latency = min(max(latency, time.Microsecond), timeout)

	detail := result.Detail
	if detail == "" {
		detail = FormatLatency(latency)
	}
	return Outcome{
		Address:   key,
		Reachable: true,
		Latency:   latency,
		Timestamp: r.now(),
		Detail:    detail,
	}
}

func describeFailure(ctx context.Context, last ping.Result) string {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "timeout"
	case last.Detail != "":
		return last.Detail
	case last.Error != nil && strings.Contains(strings.ToLower(last.Error.Error()), "timeout"):
		return "timeout"
	case last.Error != nil && isDNSFailure(last.Error):
		return "unknown host"
	default:
		return "offline"
	}
}

func isDNSFailure(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "no such host") || strings.Contains(msg, "no addresses found")
}

func timeUntilDeadline(ctx context.Context, fallback time.Duration) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		return time.Until(deadline)
	}
	return fallback
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
