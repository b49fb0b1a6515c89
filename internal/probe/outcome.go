package probe

import (
	"errors"
	"fmt"
	"time"
)

// ErrProbeInfra matches every InfraError.
var ErrProbeInfra = errors.New("probe infrastructure error")

// Outcome is the result of one reachability check for one target.
type Outcome struct {
	// Address is the target's normalized key.
	Address   string
	Reachable bool
	// Latency is only set for reachable outcomes.
	Latency   time.Duration
	Timestamp time.Time
	Detail    string
}

// HasLatency reports whether a latency measurement is present.
func (o Outcome) HasLatency() bool {
	return o.Reachable && o.Latency > 0
}

// Unreachable returns a down outcome for address.
func Unreachable(address, detail string, at time.Time) Outcome {
	return Outcome{Address: address, Timestamp: at, Detail: detail}
}

// InfraError reports that the check mechanism could not be invoked for a target.
type InfraError struct {
	Address string
	Err     error
}

func (e *InfraError) Error() string {
	return fmt.Sprintf("probe %s: %v", e.Address, e.Err)
}

func (e *InfraError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrProbeInfra) match any InfraError.
func (e *InfraError) Is(target error) bool {
	return target == ErrProbeInfra
}

// FormatLatency renders a latency the way the status menu shows it.
func FormatLatency(d time.Duration) string {
	switch {
	case d <= 0:
		return "-"
	case d < time.Millisecond:
		return fmt.Sprintf("%d us", d.Microseconds())
	case d < 10*time.Millisecond:
		return fmt.Sprintf("%.1f ms", float64(d.Microseconds())/1000)
	case d < time.Second:
		return fmt.Sprintf("%d ms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.1f s", d.Seconds())
	}
}

// String is used in log lines.
func (o Outcome) String() string {
	state := "down"
	if o.Reachable {
		state = "up"
	}
	return fmt.Sprintf("%s %s (%s)", o.Address, state, o.Detail)
}
