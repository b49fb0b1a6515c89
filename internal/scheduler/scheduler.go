package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/doridoridoriand/pingtray/internal/config"
	plog "github.com/doridoridoriand/pingtray/internal/log"
	"github.com/doridoridoriand/pingtray/internal/probe"
	"github.com/doridoridoriand/pingtray/internal/state"
	"github.com/doridoridoriand/pingtray/internal/targets"
)

// probeGrace is how long past its timeout a probe may run before the cycle
// stops waiting for it.
const probeGrace = 250 * time.Millisecond

// Phase is the scheduler's position in its cycle.
type Phase string

const (
	PhaseInitializing Phase = "initializing"
	PhaseIdle         Phase = "idle"
	PhaseProbing      Phase = "probing"
	PhasePublished    Phase = "published"
)

// TargetSource supplies the target list at the start of each cycle.
type TargetSource interface {
	Load() ([]targets.Target, error)
}

// Prober checks one target within timeout.
type Prober interface {
	Probe(ctx context.Context, target targets.Target, timeout time.Duration) (probe.Outcome, error)
}

// Observer receives cycle-level events.
type Observer interface {
	OnCycle(snapshot state.Snapshot)
	OnInfraError(target targets.Target, err error)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithObserver registers an observer called synchronously after each cycle.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// WithClock overrides the timestamp source used for snapshots.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// Scheduler runs probe cycles on an interval or on demand and publishes the
// aggregate result of each cycle.
type Scheduler struct {
	interval       time.Duration
	timeout        time.Duration
	maxConcurrency int

	source    TargetSource
	prober    Prober
	logger    *zap.Logger
	observers []Observer
	now       func() time.Time

	wake     chan struct{}
	snapshot atomic.Pointer[state.Snapshot]
	phase    atomic.Value
	cycle    uint64

	mu      sync.Mutex
	running bool
	// stopped is set once Run has returned and closed its subscribers.
	stopped     bool
	lastTargets []targets.Target
	subscribers map[int]chan state.Snapshot
	nextSubID   int
}

// NewScheduler constructs a scheduler from settings.
func NewScheduler(settings config.Settings, source TargetSource, prober Prober, logger *zap.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		interval:       settings.Interval,
		timeout:        settings.Timeout,
		maxConcurrency: maxConcurrency(settings.MaxConcurrency),
		source:         source,
		prober:         prober,
		logger:         logger,
		now:            time.Now,
		wake:           make(chan struct{}, 1),
		subscribers:    make(map[int]chan state.Snapshot),
	}
	if s.interval <= 0 {
		s.interval = 3 * time.Minute
	}
	if s.timeout <= 0 {
		s.timeout = probe.DefaultTimeout
	}
	for _, opt := range opts {
		opt(s)
	}
	s.phase.Store(PhaseInitializing)
	return s
}

// Phase reports where the scheduler is in its cycle.
func (s *Scheduler) Phase() Phase {
	return s.phase.Load().(Phase)
}

// Snapshot returns the latest published snapshot, or the initial one.
func (s *Scheduler) Snapshot() state.Snapshot {
	if snap := s.snapshot.Load(); snap != nil {
		return snap.Clone()
	}
	return state.Initial()
}

// ProbeNow requests an immediate cycle. It never blocks; requests made while a
// cycle is running collapse into a single follow-up cycle.
func (s *Scheduler) ProbeNow() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Subscribe returns a channel that receives every published snapshot, starting
// with the current one. Slow readers only see the latest value. After Run has
// returned the channel carries the final snapshot and is already closed.
func (s *Scheduler) Subscribe(buffer int) (<-chan state.Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan state.Snapshot, buffer)

	s.mu.Lock()
	ch <- s.Snapshot()
	if s.stopped {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(sub)
			}
		})
	}
}

// Run executes cycles until ctx is cancelled. A cycle already in progress when
// ctx ends is completed and published before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.stopped = false
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.stopped = true
		for id, ch := range s.subscribers {
			close(ch)
			delete(s.subscribers, id)
		}
		s.mu.Unlock()
	}()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		case <-s.wake:
		}

		elapsed := s.runCycle(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		timer.Reset(max(s.interval-elapsed, 0))
	}
}

func (s *Scheduler) runCycle(ctx context.Context) time.Duration {
	// A probe-now queued before this cycle started is satisfied by it.
	select {
	case <-s.wake:
	default:
	}

	start := time.Now()
	s.phase.Store(PhaseProbing)

	list := s.loadTargets()
	outcomes := s.probeAll(context.WithoutCancel(ctx), list)

	elapsed := time.Since(start)
	snap := state.Aggregate(outcomes, list, s.now())
	s.cycle++
	snap.Cycle = s.cycle
	snap.Duration = elapsed

	s.snapshot.Store(&snap)
	s.phase.Store(PhasePublished)
	for _, o := range s.observers {
		o.OnCycle(snap.Clone())
	}
	s.publish(snap)

	s.logger.Info("cycle_published",
		zap.Uint64("cycle", snap.Cycle),
		zap.String("overall", string(snap.Overall)),
		zap.Int("targets", len(snap.Targets)),
		zap.Int("down", snap.Down()),
		zap.Duration("duration", elapsed),
	)
	s.phase.Store(PhaseIdle)
	return elapsed
}

func (s *Scheduler) loadTargets() []targets.Target {
	list, err := s.source.Load()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.logger.Error("store_load_failed", zap.Error(err), zap.Int("using_last_known", len(s.lastTargets)))
		return s.lastTargets
	}
	s.lastTargets = list
	return list
}

func (s *Scheduler) probeAll(ctx context.Context, list []targets.Target) []probe.Outcome {
	outcomes := make([]probe.Outcome, len(list))
	sem := make(chan struct{}, s.maxConcurrency)
	var wg sync.WaitGroup
	for i, tgt := range list {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = s.probeOne(ctx, tgt)
		}()
	}
	wg.Wait()
	return outcomes
}

type probeResult struct {
	outcome probe.Outcome
	err     error
}

func (s *Scheduler) probeOne(ctx context.Context, tgt targets.Target) probe.Outcome {
	done := make(chan probeResult, 1)
	go func() {
		outcome, err := s.prober.Probe(ctx, tgt, s.timeout)
		done <- probeResult{outcome: outcome, err: err}
	}()

	timer := time.NewTimer(s.timeout + probeGrace)
	defer timer.Stop()

	var res probeResult
	select {
	case res = <-done:
	case <-timer.C:
		s.logger.Warn("probe_overran", plog.Target(tgt), zap.Duration("timeout", s.timeout))
		return probe.Unreachable(tgt.Key(), "timeout", s.now())
	}

	if res.err != nil {
		s.logger.Error("probe_infra_error", plog.Target(tgt), zap.Error(res.err))
		for _, o := range s.observers {
			o.OnInfraError(tgt, res.err)
		}
		outcome := res.outcome
		outcome.Address = tgt.Key()
		outcome.Reachable = false
		outcome.Latency = 0
		if outcome.Detail == "" {
			outcome.Detail = "unavailable"
		}
		if outcome.Timestamp.IsZero() {
			outcome.Timestamp = s.now()
		}
		return outcome
	}
	plog.LogProbeOutcome(s.logger, res.outcome)
	return res.outcome
}

// publish hands snap to every subscriber, replacing an unread older snapshot
// rather than blocking.
func (s *Scheduler) publish(snap state.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subscribers {
		value := snap.Clone()
		select {
		case ch <- value:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- value:
		default:
		}
	}
}

func maxConcurrency(value int) int {
	if value <= 0 {
		return 1
	}
	return value
}
