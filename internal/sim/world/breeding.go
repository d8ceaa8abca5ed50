package world

import (
	"sanctuary.game/internal/protocol"
	"sanctuary.game/internal/sim/world/kernel/model"
	"sanctuary.game/internal/sim/world/logic/genetics"
)

// StartBreeding pairs two distinct mature specimens in program. The offspring and the
// incubation time are fixed here and never recomputed.
func (w *World) StartBreeding(program int, parent1, parent2 string) Result {
	if program < 0 || program >= len(w.programs) {
		return w.reject(protocol.ErrBadRequest, "breeding program %d out of range", program)
	}
	pr := &w.programs[program]
	if !pr.Unlocked {
		return w.reject(protocol.ErrLocked, "breeding program %d is locked", program)
	}
	if pr.Active {
		return w.reject(protocol.ErrConflict, "breeding program %d is busy", program)
	}
	if parent1 == parent2 {
		return w.reject(protocol.ErrBadRequest, "a specimen cannot breed with itself")
	}
	a, b := w.specimens[parent1], w.specimens[parent2]
	for i, s := range []*model.Specimen{a, b} {
		if s == nil {
			return w.reject(protocol.ErrNotFound, "unknown specimen %s", []string{parent1, parent2}[i])
		}
		if !w.locationAgrees(s) {
			return w.integrity("specimen %s at %s disagrees with its slot", s.ID, s.Location)
		}
		if s.Location.Kind == model.LocBreeding {
			return w.reject(protocol.ErrConflict, "specimen %s is incubating", s.ID)
		}
		if !s.IsMature {
			return w.reject(protocol.ErrImmature, "specimen %s is not mature", s.ID)
		}
	}

	plan := w.planOffspring(a, b)
	dur := genetics.DurationMs(w.cfg.Breeding, plan.Distinction, w.guestHas(w.cfg.Breeding.DurationTrait))

	for _, s := range []*model.Specimen{a, b} {
		w.vacate(s)
		s.IsMature = false
		s.MaturityProgress = 0
		s.Vitality = w.vit.Capacity(s.Distinction)
		s.Location = model.Breeding(program)
	}
	*pr = model.BreedingProgram{
		Unlocked:    true,
		Active:      true,
		Parent1:     a.ID,
		Parent2:     b.ID,
		StartedAtMs: w.nowMs,
		DurationMs:  dur,
		Offspring:   plan,
	}
	w.emit(protocol.EventBreedingStarted, map[string]any{
		"program":     program,
		"parent1":     a.ID,
		"parent2":     b.ID,
		"duration_ms": dur,
		"distinction": plan.Distinction,
	})
	return w.ok()
}

// Incubate is the manual +1% action. StartedAtMs moves back by the same share of the
// duration so progress keeps matching elapsed/duration.
func (w *World) Incubate(program int) Result {
	if program < 0 || program >= len(w.programs) {
		return w.reject(protocol.ErrBadRequest, "breeding program %d out of range", program)
	}
	pr := &w.programs[program]
	if !pr.Active {
		return w.reject(protocol.ErrConflict, "breeding program %d is idle", program)
	}
	step := w.cfg.Breeding.IncubateStepPercent
	pr.Progress += step
	pr.StartedAtMs -= int64(pr.DurationMs * step / 100)
	if pr.Progress >= 100 {
		w.completeBreeding(program)
	}
	return w.ok()
}

func (w *World) planOffspring(a, b *model.Specimen) *model.OffspringPlan {
	pa, pb := parentOf(a), parentOf(b)
	tier := genetics.InheritRarity(a.Distinction, b.Distinction, genetics.OddsFromTuning(w.cfg.Breeding), w.rng)
	biome := genetics.InheritBiome(a.Biome, b.Biome, w.rng)
	var bonus genetics.Bonus
	if w.guestHas(w.cfg.Breeding.ExtraTraitTrait) {
		bonus = genetics.Bonus{GuestTraits: w.guestTraits(), Chance: w.cfg.Breeding.ExtraTraitChance}
	}
	traits := genetics.InheritTraits(pa, pb, tier, bonus, w.catalogs.Traits.IDs, w.rng)
	name, tier := w.pickSpecies(biome, tier)
	if len(traits) != genetics.TraitCount(tier) {
		traits = genetics.InheritTraits(pa, pb, tier, genetics.Bonus{}, w.catalogs.Traits.IDs, w.rng)
	}
	return &model.OffspringPlan{Species: name, Distinction: tier, Biome: biome, Traits: traits}
}

// advanceBreeding moves every active program forward. Ticks add dt/duration; backfill
// compares absolute elapsed time against the fixed duration.
func (w *World) advanceBreeding(ms float64, mode integrationMode, nowMs int64) int {
	done := 0
	for i := range w.programs {
		pr := &w.programs[i]
		if !pr.Active {
			continue
		}
		if pr.DurationMs <= 0 {
			w.anomaly("breeding program %d has no duration", i)
			pr.DurationMs = 1
		}
		switch mode {
		case modeBackfill:
			elapsed := float64(nowMs - pr.StartedAtMs)
			if elapsed >= pr.DurationMs {
				pr.Progress = 100
			} else {
				pr.Progress = elapsed / pr.DurationMs * 100
			}
		default:
			pr.Progress += ms / pr.DurationMs * 100
		}
		if pr.Progress >= 100 {
			w.completeBreeding(i)
			done++
		}
	}
	return done
}

// completeBreeding resets the program first, rolls for a legendary, registers the
// offspring while both parents are still protected from the rarity cap, then returns
// the parents to Collection.
func (w *World) completeBreeding(program int) {
	pr := &w.programs[program]
	plan := pr.Offspring
	a, b := w.specimens[pr.Parent1], w.specimens[pr.Parent2]
	pr.Idle()

	if a == nil || b == nil || plan == nil {
		w.anomaly("breeding program %d completed with missing parents or plan", program)
		for _, s := range []*model.Specimen{a, b} {
			if s != nil {
				s.Location = model.Collection()
			}
		}
		return
	}

	var child *model.Specimen
	if w.legendaryRoll(a, b) {
		child = w.legendaryFor(a.Biome)
	}
	if child == nil {
		child = w.newSpecimen(plan.Species, plan.Distinction, plan.Biome, append([]string(nil), plan.Traits...))
	}
	w.register(child)
	if child.IsLegendary {
		w.emit(protocol.EventLegendaryHatched, map[string]any{"specimen_id": child.ID, "species": child.Species, "biome": child.Biome})
	}

	for _, s := range []*model.Specimen{a, b} {
		s.Location = model.Collection()
		w.markFresh(s.ID)
	}
	w.emit(protocol.EventBreedingCompleted, map[string]any{
		"program":     program,
		"specimen_id": child.ID,
		"distinction": child.Distinction,
		"legendary":   child.IsLegendary,
	})
}

// legendaryRoll consumes one roll only when the pair is eligible.
func (w *World) legendaryRoll(a, b *model.Specimen) bool {
	if !genetics.LegendaryEligible(parentOf(a), parentOf(b), w.prestige.HasCrystal(a.Biome)) {
		return false
	}
	if _, ok := w.catalogs.Legendaries.ByBiome[a.Biome]; !ok {
		return false
	}
	chance := genetics.LegendaryChance(w.cfg.Breeding, w.guestHas(w.cfg.Breeding.LegendaryTrait))
	return w.rng.Float64() < chance
}

func (w *World) legendaryFor(biome string) *model.Specimen {
	def, ok := w.catalogs.Legendaries.ByBiome[biome]
	if !ok {
		return nil
	}
	p := genetics.Parent{Distinction: 5, Biome: biome, Traits: def.Traits}
	traits := append([]string(nil), def.Traits...)
	if want := genetics.TraitCount(5); len(traits) != want {
		traits = genetics.InheritTraits(p, p, 5, genetics.Bonus{}, w.catalogs.Traits.IDs, w.rng)
	}
	s := w.newSpecimen(def.Species, 5, biome, traits)
	s.IsLegendary = true
	return s
}

// guests are the specimens currently perched.
func (w *World) guests() []*model.Specimen {
	var out []*model.Specimen
	for i := range w.perches {
		if id := w.perches[i].Occupant; id != "" {
			if s := w.specimens[id]; s != nil {
				out = append(out, s)
			}
		}
	}
	return out
}

func (w *World) guestHas(trait string) bool {
	if trait == "" {
		return false
	}
	for _, g := range w.guests() {
		if g.HasTrait(trait) {
			return true
		}
	}
	return false
}

func (w *World) guestTraits() []string {
	var out []string
	for _, g := range w.guests() {
		for _, tr := range g.Traits {
			if !containsString(out, tr) {
				out = append(out, tr)
			}
		}
	}
	return out
}

func (w *World) Program(i int) (model.BreedingProgram, bool) {
	if i < 0 || i >= len(w.programs) {
		return model.BreedingProgram{}, false
	}
	p := w.programs[i]
	if p.Offspring != nil {
		plan := *p.Offspring
		plan.Traits = append([]string(nil), plan.Traits...)
		p.Offspring = &plan
	}
	return p, true
}

func parentOf(s *model.Specimen) genetics.Parent {
	return genetics.Parent{Distinction: s.Distinction, Biome: s.Biome, Traits: s.Traits}
}
