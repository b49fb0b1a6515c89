package state

import (
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/doridoridoriand/pingtray/internal/probe"
	"github.com/doridoridoriand/pingtray/internal/targets"
)

const missingDetail = "no outcome"

// Aggregate combines the outcomes of one cycle into a snapshot. Every expected
// target gets exactly one entry; a target without an outcome counts as down.
// Outcomes for addresses outside expected are ignored.
func Aggregate(outcomes []probe.Outcome, expected []targets.Target, at time.Time) Snapshot {
	byKey := lo.KeyBy(outcomes, func(o probe.Outcome) string {
		return targets.NormalizeAddress(o.Address)
	})

	perTarget := make(map[string]probe.Outcome, len(expected))
	overall := AllUp
	for _, tgt := range expected {
		key := tgt.Key()
		outcome, ok := byKey[key]
		if !ok {
			outcome = probe.Unreachable(key, missingDetail, at)
		}
		outcome.Address = key
		if !outcome.Reachable {
			outcome.Latency = 0
			overall = SomeDown
		}
		perTarget[key] = outcome
	}

	list := slices.Clone(expected)
	if list == nil {
		list = []targets.Target{}
	}
	return Snapshot{
		Overall:     overall,
		Targets:     list,
		PerTarget:   perTarget,
		LastUpdated: at,
	}
}
