package world

import (
	"sanctuary.game/internal/protocol"
	"sanctuary.game/internal/sim/tuning"
	"sanctuary.game/internal/sim/world/kernel/model"
	"sanctuary.game/internal/sim/world/logic/genetics"
)

func (w *World) newSpecimen(species string, distinction int, biome string, traits []string) *model.Specimen {
	return &model.Specimen{
		ID:          w.newSpecimenID(),
		Species:     species,
		Distinction: distinction,
		Biome:       biome,
		Traits:      traits,
		Vitality:    w.vit.Capacity(distinction),
		Location:    model.Collection(),
		BornAtMs:    w.nowMs,
	}
}

// register admits a new specimen. The rarity cap runs first so the newcomer is never
// its own victim.
func (w *World) register(s *model.Specimen) {
	if deferred := w.enforceRarityCap(s.Distinction); deferred {
		w.capExempt[s.ID] = true
	}
	w.specimens[s.ID] = s
	w.markFresh(s.ID)
	w.catalogue(s)
	w.emit(protocol.EventSpecimenCreated, map[string]any{
		"specimen_id": s.ID,
		"species":     s.Species,
		"distinction": s.Distinction,
		"biome":       s.Biome,
		"legendary":   s.IsLegendary,
	})
}

func (w *World) catalogue(s *model.Specimen) {
	if !containsString(w.catalogued, s.Species) {
		w.catalogued = append(w.catalogued, s.Species)
		w.emit(protocol.EventSpeciesDiscovered, map[string]any{"species": s.Species, "biome": s.Biome})
	}
	if s.IsLegendary && !containsString(w.legendaries, s.Species) {
		w.legendaries = append(w.legendaries, s.Species)
	}
}

// removeSpecimen deletes a specimen after clearing its back-reference.
func (w *World) removeSpecimen(s *model.Specimen) {
	w.vacate(s)
	delete(w.specimens, s.ID)
	delete(w.exhaustedNotified, s.ID)
	delete(w.capExempt, s.ID)
}

// pickSpecies chooses a species native to biome at tier. When the catalog has none at
// that tier it walks down until one exists, returning the tier it settled on.
func (w *World) pickSpecies(biome string, tier int) (string, int) {
	for t := tier; t >= 1; t-- {
		defs := w.catalogs.SpeciesFor(biome, t)
		if len(defs) > 0 {
			return defs[w.rng.IntN(len(defs))].Name, t
		}
	}
	w.anomaly("no species for biome %s up to tier %d", biome, tier)
	return "Unknown", tier
}

func (w *World) spawnTraits(tier int) []string {
	return genetics.SpawnTraits(tier, w.catalogs.Traits.IDs, w.rng)
}

// countTier counts specimens of distinction.
func (w *World) countTier(distinction int) int {
	n := 0
	for _, s := range w.specimens {
		if s.Distinction == distinction {
			n++
		}
	}
	return n
}

func (w *World) markFresh(id string) {
	if w.fresh != nil {
		w.fresh[id] = true
	}
}

func (w *World) Specimen(id string) (model.Specimen, bool) {
	s := w.specimens[id]
	if s == nil {
		return model.Specimen{}, false
	}
	return s.Clone(), true
}

// Specimens returns copies of every specimen ordered by id.
func (w *World) Specimens() []model.Specimen {
	out := make([]model.Specimen, 0, len(w.specimens))
	for _, id := range w.sortedSpecimenIDs() {
		out = append(out, w.specimens[id].Clone())
	}
	return out
}

// TierCounts returns the population of each distinction.
func (w *World) TierCounts() [tuning.Tiers]int {
	var out [tuning.Tiers]int
	for _, s := range w.specimens {
		out[tuning.TierIndex(s.Distinction)]++
	}
	return out
}

func containsString(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
