// Package survey holds the survey contribution formula and the spawn-tier roll. Both the
// real-time tick and the offline backfill call these so the two paths cannot drift.
package survey

import "sanctuary.game/internal/sim/tuning"

// Bird is the part of a specimen the survey formula reads.
type Bird struct {
	Distinction int
	Biome       string
}

// RatePerSec is baseRate[highestSlot] * distinction, doubled when the bird is native to
// biome. highestSlot < 0 means the biome has no unlocked forager slot and yields 0.
func RatePerSec(rates []float64, highestSlot int, biome string, b Bird) float64 {
	if highestSlot < 0 || highestSlot >= len(rates) || b.Distinction <= 0 {
		return 0
	}
	r := rates[highestSlot] * float64(b.Distinction)
	if b.Biome == biome {
		r *= 2
	}
	return r
}

// Contribution is the survey progress a bird adds over activeMs of work.
func Contribution(rates []float64, highestSlot int, biome string, b Bird, activeMs float64) float64 {
	if activeMs <= 0 {
		return 0
	}
	return RatePerSec(rates, highestSlot, biome, b) * activeMs / 1000
}

// completeEpsilon absorbs the rounding left by summing many small tick contributions,
// relative to the survey cost.
const completeEpsilon = 1e-9

// Complete reports whether progress has reached cost. Ticked and backfilled accrual
// of the same interval must agree, so progress within rounding of cost counts.
func Complete(progress, cost float64) bool {
	return progress >= cost-cost*completeEpsilon
}

// TierOdds are the weights of the spawn roll; the remainder is the -1 branch.
type TierOdds struct {
	Same float64
	Up   float64
}

func OddsFromTuning(b tuning.Breeding) TierOdds {
	return TierOdds{Same: b.SurveySameTierChance, Up: b.SurveyUpTierChance}
}

// RollTier maps a uniform roll to the tier of a survey spawn around the surveyor's
// distinction. The result is clamped to [1,maxTier]; starterOnly forces tier 1.
func RollTier(roll float64, around, maxTier int, starterOnly bool, odds TierOdds) int {
	if starterOnly {
		return 1
	}
	if around < 1 {
		around = 1
	}
	tier := around
	switch {
	case roll < odds.Same:
	case roll < odds.Same+odds.Up:
		tier++
	default:
		tier--
	}
	if tier > tuning.Tiers {
		tier = tuning.Tiers
	}
	if maxTier >= 1 && tier > maxTier {
		tier = maxTier
	}
	if tier < 1 {
		tier = 1
	}
	return tier
}
