package ping

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/multierr"
)

// FallbackPinger checks hosts with primary and switches to secondary once the
// primary mechanism turns out to be unusable on this machine, which is the
// usual outcome of opening raw ICMP sockets without privileges.
type FallbackPinger struct {
	primary   Pinger
	secondary Pinger
	// demoted is set after the first permission or availability failure so
	// later checks go straight to secondary.
	demoted atomic.Bool
}

// NewFallbackPinger wraps primary with a secondary fallback.
func NewFallbackPinger(primary, secondary Pinger) *FallbackPinger {
	return &FallbackPinger{primary: primary, secondary: secondary}
}

// Demoted reports whether the primary pinger has been given up on.
func (p *FallbackPinger) Demoted() bool {
	return p.demoted.Load()
}

// Ping checks addr. A host that is simply down never triggers the fallback.
func (p *FallbackPinger) Ping(ctx context.Context, addr string, timeout time.Duration) Result {
	if p.demoted.Load() {
		return p.secondary.Ping(ctx, addr, timeout)
	}

	first := p.primary.Ping(ctx, addr, timeout)
	if first.Success || !shouldFallback(first.Error) {
		return first
	}
	p.demoted.Store(true)

	second := p.secondary.Ping(ctx, addr, timeout)
	if second.Error != nil && errors.Is(second.Error, ErrUnavailable) {
		second.Error = multierr.Append(first.Error, second.Error)
	}
	return second
}

func shouldFallback(err error) bool {
	return errors.Is(err, ErrUnavailable) || isPermissionError(err)
}

func isPermissionError(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, os.ErrPermission), errors.Is(err, syscall.EPERM), errors.Is(err, syscall.EACCES):
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"operation not permitted", "permission denied"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
