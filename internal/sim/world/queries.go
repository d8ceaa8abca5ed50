package world

import (
	"sort"

	"sanctuary.game/internal/protocol"
	"sanctuary.game/internal/sim/world/kernel/model"
)

// IncomePerSecond sums base income over occupied forager slots whose bird still has
// vitality.
func (w *World) IncomePerSecond() float64 {
	total := 0.0
	for _, b := range w.biomes {
		if !b.Unlocked {
			continue
		}
		for i := range b.Foragers {
			f := &b.Foragers[i]
			if !f.Unlocked || f.Occupant == "" {
				continue
			}
			if s := w.specimens[f.Occupant]; s != nil && s.Vitality > 0 {
				total += w.baseIncome(s.Distinction)
			}
		}
	}
	return total
}

// Biome returns a copy of biome id's state.
func (w *World) Biome(id string) (model.Biome, bool) {
	b := w.biome(id)
	if b == nil {
		return model.Biome{}, false
	}
	return *b, true
}

func (w *World) Perch(i int) (model.Perch, bool) {
	if i < 0 || i >= len(w.perches) {
		return model.Perch{}, false
	}
	return w.perches[i], true
}

func (w *World) CataloguedSpecies() []string   { return append([]string(nil), w.catalogued...) }
func (w *World) LegendariesAcquired() []string { return append([]string(nil), w.legendaries...) }

func (w *World) Milestones() []string {
	out := make([]string, 0, len(w.milestones))
	for k := range w.milestones {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// View builds the read model pushed to clients.
func (w *World) View() protocol.StateView {
	v := protocol.StateView{
		Seeds:               w.ledger.Seeds,
		TotalSeedsEarned:    w.ledger.TotalSeedsEarned,
		IncomePerSec:        w.IncomePerSecond(),
		Crystals:            append([]string{}, w.prestige.Crystals...),
		PrestigeCount:       w.prestige.Count,
		CataloguedSpecies:   append([]string{}, w.catalogued...),
		LegendariesAcquired: append([]string{}, w.legendaries...),
		Milestones:          w.Milestones(),
	}
	for _, b := range w.biomes {
		bv := protocol.BiomeView{
			ID:             b.ID,
			Unlocked:       b.Unlocked,
			Surveyor:       b.Survey.Occupant,
			SurveyProgress: b.Survey.Progress,
			SurveyCost:     w.catalogs.Biomes.ByID[b.ID].SurveyCost,
			SurveyRate:     w.SurveyRate(b.ID),
		}
		for _, f := range b.Foragers {
			bv.Foragers = append(bv.Foragers, protocol.ForagerView{Unlocked: f.Unlocked, Occupant: f.Occupant})
		}
		v.Biomes = append(v.Biomes, bv)
	}
	for _, p := range w.perches {
		v.Perches = append(v.Perches, protocol.PerchView{Unlocked: p.Unlocked, Occupant: p.Occupant, CooldownUntilMs: p.CooldownUntilMs})
	}
	for _, p := range w.programs {
		bv := protocol.BreedingView{
			Unlocked:   p.Unlocked,
			Active:     p.Active,
			Parent1:    p.Parent1,
			Parent2:    p.Parent2,
			Progress:   p.Progress,
			DurationMs: p.DurationMs,
		}
		if p.Offspring != nil {
			bv.OffspringOf = p.Offspring.Distinction
		}
		v.Breeding = append(v.Breeding, bv)
	}
	for _, id := range w.sortedSpecimenIDs() {
		s := w.specimens[id]
		v.Specimens = append(v.Specimens, protocol.SpecimenView{
			ID:               s.ID,
			Species:          s.Species,
			Distinction:      s.Distinction,
			Biome:            s.Biome,
			Traits:           append([]string(nil), s.Traits...),
			Vitality:         s.Vitality,
			Capacity:         w.vit.Capacity(s.Distinction),
			IsMature:         s.IsMature,
			MaturityProgress: s.MaturityProgress,
			Location:         s.Location.String(),
			IsLegendary:      s.IsLegendary,
		})
	}
	return v
}
