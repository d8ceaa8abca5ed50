// Package genetics computes offspring traits, rarity and biome, and legendary eligibility.
package genetics

import (
	"math"

	"sanctuary.game/internal/sim/rng"
	"sanctuary.game/internal/sim/tuning"
)

type Parent struct {
	Distinction int
	Biome       string
	Traits      []string
}

var traitCounts = [tuning.Tiers]int{1, 1, 2, 3, 3}

// TraitCount is the number of traits a specimen of distinction carries.
func TraitCount(distinction int) int {
	return traitCounts[tuning.TierIndex(distinction)]
}

type RarityOdds struct {
	Keep float64
	Up   float64
}

func OddsFromTuning(b tuning.Breeding) RarityOdds {
	return RarityOdds{Keep: b.RarityKeepChance, Up: b.RarityUpChance}
}

// InheritRarity rolls ceil((d1+d2)/2) then keep/+1/-1, clamped to [1,5].
func InheritRarity(d1, d2 int, odds RarityOdds, src rng.Source) int {
	base := int(math.Ceil(float64(d1+d2) / 2))
	roll := src.Float64()
	switch {
	case roll < odds.Keep:
	case roll < odds.Keep+odds.Up:
		base++
	default:
		base--
	}
	return clampTier(base)
}

func InheritBiome(b1, b2 string, src rng.Source) string {
	if src.IntN(2) == 0 {
		return b1
	}
	return b2
}

// Bonus describes the guest-trait extra-trait chance.
type Bonus struct {
	GuestTraits []string
	Chance      float64
}

// InheritTraits picks one random trait per parent, dedupes, then trims or pads to the
// tier's count. Padding draws from the parents' remaining traits, then from catalog in
// order. A bonus swaps the last slot for a guest trait the offspring lacks.
func InheritTraits(p1, p2 Parent, tier int, bonus Bonus, catalog []string, src rng.Source) []string {
	want := TraitCount(tier)
	out := make([]string, 0, want)
	have := map[string]bool{}
	add := func(tr string) {
		if tr == "" || have[tr] {
			return
		}
		have[tr] = true
		out = append(out, tr)
	}
	if n := len(p1.Traits); n > 0 {
		add(p1.Traits[src.IntN(n)])
	}
	if n := len(p2.Traits); n > 0 {
		add(p2.Traits[src.IntN(n)])
	}

	var pool []string
	for _, tr := range append(append([]string(nil), p1.Traits...), p2.Traits...) {
		if !have[tr] && !contains(pool, tr) {
			pool = append(pool, tr)
		}
	}
	for len(out) < want && len(pool) > 0 {
		i := src.IntN(len(pool))
		add(pool[i])
		pool = append(pool[:i], pool[i+1:]...)
	}
	for _, tr := range catalog {
		if len(out) >= want {
			break
		}
		add(tr)
	}
	if len(out) > want {
		out = out[:want]
	}

	if len(bonus.GuestTraits) > 0 && len(out) > 0 && src.Float64() < bonus.Chance {
		var fresh []string
		for _, tr := range bonus.GuestTraits {
			if !contains(out, tr) && !contains(fresh, tr) {
				fresh = append(fresh, tr)
			}
		}
		if len(fresh) > 0 {
			out[len(out)-1] = fresh[src.IntN(len(fresh))]
		}
	}
	return out
}

// SpawnTraits draws distinct traits for a surveyed specimen of tier.
func SpawnTraits(tier int, catalog []string, src rng.Source) []string {
	want := TraitCount(tier)
	pool := append([]string(nil), catalog...)
	out := make([]string, 0, want)
	for len(out) < want && len(pool) > 0 {
		i := src.IntN(len(pool))
		out = append(out, pool[i])
		pool = append(pool[:i], pool[i+1:]...)
	}
	return out
}

// LegendaryEligible: both parents tier 5, same biome, and that biome's crystal owned.
func LegendaryEligible(p1, p2 Parent, hasCrystal bool) bool {
	return hasCrystal && p1.Distinction == tuning.Tiers && p2.Distinction == tuning.Tiers && p1.Biome == p2.Biome
}

func LegendaryChance(b tuning.Breeding, guestBonus bool) float64 {
	c := b.LegendaryBaseChance
	if guestBonus {
		c += b.LegendaryBonus
	}
	return c
}

// DurationMs is the fixed incubation time for an offspring of tier.
func DurationMs(b tuning.Breeding, tier int, shortened bool) float64 {
	d := b.BaseDurationSec[tuning.TierIndex(tier)] * 1000
	if shortened {
		d *= b.DurationMultiplier
	}
	return d
}

func clampTier(t int) int {
	if t < 1 {
		return 1
	}
	if t > tuning.Tiers {
		return tuning.Tiers
	}
	return t
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
