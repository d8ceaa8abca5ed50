package world

import (
	"sanctuary.game/internal/protocol"
	"sanctuary.game/internal/sim/world/kernel/model"
	"sanctuary.game/internal/sim/world/logic/survey"
)

// completeSurvey spawns one specimen from biome b. Progress is cleared before anything
// else so a second contribution in the same pass cannot complete the survey again;
// overflow past the cost is discarded.
func (w *World) completeSurvey(b *model.Biome) {
	b.Survey.Progress = 0

	around := 1
	surveyor := ""
	if s := w.specimens[b.Survey.Occupant]; s != nil {
		around = s.Distinction
		surveyor = s.ID
	}
	def := w.catalogs.Biomes.ByID[b.ID]
	tier := survey.RollTier(w.rng.Float64(), around, def.MaxTier, w.starterOnly(b.ID), survey.OddsFromTuning(w.cfg.Breeding))
	name, tier := w.pickSpecies(b.ID, tier)
	sp := w.newSpecimen(name, tier, b.ID, w.spawnTraits(tier))
	w.emit(protocol.EventSurveyCompleted, map[string]any{
		"biome":       b.ID,
		"surveyor":    surveyor,
		"specimen_id": sp.ID,
		"distinction": tier,
	})
	w.register(sp)
}

// starterOnly reports whether the starting biome is still restricted to tier 1.
func (w *World) starterOnly(biome string) bool {
	return w.biomeIndex(biome) == 0 && !w.milestones[MilestoneStarterUnrestricted]
}

// SurveyRate is the progress per second biome currently accrues: 0 without a surveyor,
// otherwise the surveyor plus co-located foragers that still have vitality.
func (w *World) SurveyRate(biome string) float64 {
	b := w.biome(biome)
	if b == nil || !b.Unlocked || b.Survey.Occupant == "" {
		return 0
	}
	def := w.catalogs.Biomes.ByID[b.ID]
	hs := b.HighestUnlockedForager()
	rate := 0.0
	if s := w.specimens[b.Survey.Occupant]; s != nil && s.Vitality > 0 {
		rate += survey.RatePerSec(def.SurveyRates, hs, b.ID, birdOf(s))
	}
	for i := range b.Foragers {
		f := &b.Foragers[i]
		if !f.Unlocked || f.Occupant == "" {
			continue
		}
		if s := w.specimens[f.Occupant]; s != nil && s.Vitality > 0 {
			rate += survey.RatePerSec(def.SurveyRates, hs, b.ID, birdOf(s))
		}
	}
	return rate
}
