package world

import (
	"fmt"
	"strconv"

	"sanctuary.game/internal/persistence/snapshot"
	"sanctuary.game/internal/sim/tuning"
	"sanctuary.game/internal/sim/world/kernel/model"
	"sanctuary.game/internal/sim/world/logic/ids"
)

// ImportSave replaces the world state with a decoded save. Structural problems that
// make the document unusable return an error; reference defects are repaired and
// logged as anomalies so a damaged save still loads.
func (w *World) ImportSave(s snapshot.SaveV1) error {
	specimens := map[string]*model.Specimen{}
	var allIDs []string
	for _, sv := range s.Specimens {
		if sv.ID == "" {
			return fmt.Errorf("import: specimen with empty id")
		}
		if _, dup := specimens[sv.ID]; dup {
			return fmt.Errorf("import: duplicate specimen %s", sv.ID)
		}
		if sv.Distinction < 1 || sv.Distinction > tuning.Tiers {
			return fmt.Errorf("import: specimen %s distinction %d out of range", sv.ID, sv.Distinction)
		}
		kind, ok := model.ParseLocationKind(sv.Location.Kind)
		if !ok {
			return fmt.Errorf("import: specimen %s has unknown location %q", sv.ID, sv.Location.Kind)
		}
		sp := &model.Specimen{
			ID:               sv.ID,
			Species:          sv.Species,
			Distinction:      sv.Distinction,
			Biome:            sv.Biome,
			Traits:           append([]string(nil), sv.Traits...),
			Vitality:         w.vit.Clamp(sv.Vitality, sv.Distinction),
			IsMature:         sv.IsMature || sv.MaturityProgress >= 100,
			MaturityProgress: clampPercent(sv.MaturityProgress),
			Location:         model.Location{Kind: kind, Biome: sv.Location.Biome, Slot: sv.Location.Slot}.Normalize(),
			IsLegendary:      sv.IsLegendary,
			BornAtMs:         sv.BornAt,
		}
		if sp.IsMature {
			sp.MaturityProgress = 100
		}
		specimens[sp.ID] = sp
		allIDs = append(allIDs, sp.ID)
	}

	w.resetContainers()
	w.specimens = specimens
	w.ledger = model.Ledger{Seeds: max(0, s.Seeds), TotalSeedsEarned: max(0, s.TotalSeedsEarned)}
	w.prestige = model.Prestige{Crystals: append([]string(nil), s.Crystals...), Count: s.PrestigeCount}

	for _, bv := range s.Biomes {
		b := w.biome(bv.ID)
		if b == nil {
			w.warn("import: dropping unknown biome %s", bv.ID)
			continue
		}
		b.Unlocked = bv.Unlocked
		for i := 0; i < len(b.Foragers) && i < len(bv.Foragers); i++ {
			b.Foragers[i] = model.ForagerSlot{Unlocked: bv.Foragers[i].Unlocked, Occupant: bv.Foragers[i].Occupant, AssignedAtMs: bv.Foragers[i].AssignedAt}
		}
		b.Survey = model.Survey{Progress: max(0, bv.Survey.Progress), Occupant: bv.Survey.Occupant, UpdatedAtMs: bv.Survey.UpdatedAt}
	}
	for i := 0; i < len(w.perches) && i < len(s.Perches); i++ {
		pv := s.Perches[i]
		w.perches[i] = model.Perch{Unlocked: pv.Unlocked, Occupant: pv.Occupant, CooldownUntilMs: pv.CooldownUntil}
	}
	for i := 0; i < len(w.programs) && i < len(s.BreedingPrograms); i++ {
		bv := s.BreedingPrograms[i]
		p := model.BreedingProgram{
			Unlocked:    bv.Unlocked,
			Active:      bv.Active,
			Parent1:     bv.Parent1,
			Parent2:     bv.Parent2,
			Progress:    clampPercent(bv.Progress),
			StartedAtMs: bv.StartTime,
			DurationMs:  bv.EstimatedDuration,
		}
		if bv.Offspring != nil {
			p.Offspring = &model.OffspringPlan{
				Species:     bv.Offspring.Species,
				Distinction: bv.Offspring.Distinction,
				Biome:       bv.Offspring.Biome,
				Traits:      append([]string(nil), bv.Offspring.Traits...),
			}
		}
		w.programs[i] = p
	}

	w.catalogued = append([]string(nil), s.CataloguedSpecies...)
	w.legendaries = append([]string(nil), s.LegendariesAcquired...)
	for _, m := range s.Milestones {
		w.milestones[m] = true
	}
	for k, n := range s.PendingCulls {
		t, err := strconv.Atoi(k)
		if err != nil || t < 1 || t > tuning.Tiers || n <= 0 {
			w.warn("import: dropping pending cull %q=%d", k, n)
			continue
		}
		w.pendingCulls[t] = n
	}

	w.nowMs = s.LastSaveTime
	w.msCarry = 0
	w.lastSaveAtMs = s.LastSaveTime
	w.lastOpenAtMs = s.LastOpenTime
	w.nextSpecimenNum.Store(ids.MaxU64(s.Counters.NextSpecimen, ids.NextAfter(allIDs)))
	if st, ok := w.rng.(rngStater); ok && len(s.Counters.RNGState) > 0 {
		if err := st.Restore(s.Counters.RNGState); err != nil {
			w.warn("import: rng state: %v", err)
		}
	}

	w.repairReferences()
	return nil
}

// resetContainers clears every table without seeding a starter bird.
func (w *World) resetContainers() {
	w.biomes = w.biomes[:0]
	for _, id := range w.catalogs.Biomes.Order {
		w.biomes = append(w.biomes, &model.Biome{ID: id})
	}
	w.perches = [PerchCount]model.Perch{}
	w.programs = [BreedingProgramCount]model.BreedingProgram{}
	w.milestones = map[string]bool{}
	w.pendingCulls = map[int]int{}
	w.capExempt = map[string]bool{}
	w.exhaustedNotified = map[string]bool{}
	w.pending = nil
}

// repairReferences makes both sides of every assignment agree. Dangling slot
// references are cleared; specimens whose slot does not point back go to Collection.
func (w *World) repairReferences() {
	dropStale := func(role model.Location, p *string) {
		if *p == "" {
			return
		}
		s := w.specimens[*p]
		if s == nil || s.Location != role {
			w.anomaly("import: clearing %s reference to %s", role, *p)
			*p = ""
		}
	}
	for _, b := range w.biomes {
		for i := range b.Foragers {
			dropStale(model.Forager(b.ID, i), &b.Foragers[i].Occupant)
		}
		dropStale(model.Surveyor(b.ID), &b.Survey.Occupant)
	}
	for i := range w.perches {
		dropStale(model.Perched(i), &w.perches[i].Occupant)
	}
	for i := range w.programs {
		p := &w.programs[i]
		if !p.Active {
			continue
		}
		a, b := w.specimens[p.Parent1], w.specimens[p.Parent2]
		if a == nil || b == nil || a.Location != model.Breeding(i) || b.Location != model.Breeding(i) || p.Offspring == nil {
			w.anomaly("import: breeding program %d is inconsistent; resetting", i)
			p.Idle()
		}
	}
	for _, id := range w.sortedSpecimenIDs() {
		s := w.specimens[id]
		if !w.locationAgrees(s) {
			w.anomaly("import: specimen %s at %s has no back-reference; returning to collection", id, s.Location)
			s.Location = model.Collection()
		}
	}
}

func clampPercent(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 100 {
		return 100
	}
	return x
}
