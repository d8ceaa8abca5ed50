// Package vitality holds the per-tier energy rate functions shared by the real-time tick
// and the offline backfill.
package vitality

import "sanctuary.game/internal/sim/tuning"

// Table holds per-tier capacities and per-millisecond rates.
type Table struct {
	capacity  [tuning.Tiers]float64
	drainMs   [tuning.Tiers]float64
	restoreMs [tuning.Tiers]float64
}

func FromTuning(v tuning.Vitality) Table {
	var t Table
	for i := 0; i < tuning.Tiers; i++ {
		t.capacity[i] = v.Capacity[i]
		t.drainMs[i] = v.DrainPerSec[i] / 1000
		// Lower tiers restore disproportionately faster: multiplier x nominal full-restore.
		t.restoreMs[i] = v.Capacity[i] * v.RestoreMultiplier[i] / (v.NominalRestoreSec * 1000)
	}
	return t
}

func (t Table) Capacity(distinction int) float64 {
	return t.capacity[tuning.TierIndex(distinction)]
}

// DrainRate is vitality lost per millisecond of work.
func (t Table) DrainRate(distinction int) float64 {
	return t.drainMs[tuning.TierIndex(distinction)]
}

// RestoreRate is vitality regained per millisecond on a perch.
func (t Table) RestoreRate(distinction int) float64 {
	return t.restoreMs[tuning.TierIndex(distinction)]
}

// Drain returns vitality after working for ms, floored at 0.
func (t Table) Drain(v float64, distinction int, ms float64) float64 {
	if ms <= 0 {
		return t.Clamp(v, distinction)
	}
	nv := v - t.DrainRate(distinction)*ms
	if nv < emptyEpsilon {
		return 0
	}
	return t.Clamp(nv, distinction)
}

// emptyEpsilon absorbs float residue when an interval drains exactly to empty.
const emptyEpsilon = 1e-9

// Restore returns vitality after resting for ms, capped at capacity.
func (t Table) Restore(v float64, distinction int, ms float64) float64 {
	if ms <= 0 {
		return t.Clamp(v, distinction)
	}
	return t.Clamp(v+t.RestoreRate(distinction)*ms, distinction)
}

// ActiveMs is how much of an interval of ms a worker starting at v can spend working
// before it is exhausted: min(ms, v/drainRate).
func (t Table) ActiveMs(v float64, distinction int, ms float64) float64 {
	if ms <= 0 || v <= 0 {
		return 0
	}
	rate := t.DrainRate(distinction)
	if rate <= 0 {
		return ms
	}
	left := v / rate
	if left < ms {
		return left
	}
	return ms
}

// MsUntilEmpty is the remaining working time at full effort.
func (t Table) MsUntilEmpty(v float64, distinction int) float64 {
	rate := t.DrainRate(distinction)
	if rate <= 0 || v <= 0 {
		return 0
	}
	return v / rate
}

func (t Table) Clamp(v float64, distinction int) float64 {
	if v < 0 {
		return 0
	}
	if c := t.Capacity(distinction); v > c {
		return c
	}
	return v
}
