package state

import (
	"maps"
	"slices"
	"time"

	"github.com/doridoridoriand/pingtray/internal/probe"
	"github.com/doridoridoriand/pingtray/internal/targets"
)

// Overall is the combined health of all monitored targets.
type Overall string

const (
	Initializing Overall = "INITIALIZING"
	AllUp        Overall = "ALL_UP"
	SomeDown     Overall = "SOME_DOWN"
)

// Snapshot is the aggregate status produced by one completed cycle.
type Snapshot struct {
	Overall     Overall
	Cycle       uint64
	Targets     []targets.Target
	PerTarget   map[string]probe.Outcome
	LastUpdated time.Time
	Duration    time.Duration
}

// Entry pairs a target with its outcome from the cycle.
type Entry struct {
	Target  targets.Target
	Outcome probe.Outcome
}

// Initial returns the snapshot shown before the first cycle completes.
func Initial() Snapshot {
	return Snapshot{
		Overall:   Initializing,
		Targets:   []targets.Target{},
		PerTarget: map[string]probe.Outcome{},
	}
}

// Initializing reports whether no cycle has completed yet.
func (s Snapshot) Initializing() bool {
	return s.Overall == Initializing || s.Overall == ""
}

// Entries returns target/outcome pairs in store order.
func (s Snapshot) Entries() []Entry {
	entries := make([]Entry, 0, len(s.Targets))
	for _, tgt := range s.Targets {
		entries = append(entries, Entry{Target: tgt, Outcome: s.PerTarget[tgt.Key()]})
	}
	return entries
}

// Up counts reachable targets.
func (s Snapshot) Up() int {
	up := 0
	for _, tgt := range s.Targets {
		if s.PerTarget[tgt.Key()].Reachable {
			up++
		}
	}
	return up
}

// Down counts unreachable targets.
func (s Snapshot) Down() int {
	return len(s.Targets) - s.Up()
}

// Clone returns a deep copy so the receiver can be handed out safely.
func (s Snapshot) Clone() Snapshot {
	clone := s
	clone.Targets = slices.Clone(s.Targets)
	clone.PerTarget = maps.Clone(s.PerTarget)
	if clone.Targets == nil {
		clone.Targets = []targets.Target{}
	}
	if clone.PerTarget == nil {
		clone.PerTarget = map[string]probe.Outcome{}
	}
	return clone
}
