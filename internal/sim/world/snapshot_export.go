package world

import (
	"sort"
	"strconv"

	"sanctuary.game/internal/persistence/snapshot"
	"sanctuary.game/internal/sim/world/kernel/model"
)

type rngStater interface {
	State() ([]byte, error)
	Restore(state []byte) error
}

// ExportSave captures the full persisted document. LastSaveTime is stamped with the
// current simulation time.
func (w *World) ExportSave() snapshot.SaveV1 {
	s := snapshot.SaveV1{
		Header: snapshot.Header{
			Version:   snapshot.Version,
			Revision:  snapshot.CurrentRevision,
			SavedAtMs: w.nowMs,
		},
		Seeds:               w.ledger.Seeds,
		TotalSeedsEarned:    w.ledger.TotalSeedsEarned,
		Crystals:            append([]string{}, w.prestige.Crystals...),
		PrestigeCount:       w.prestige.Count,
		Biomes:              []snapshot.BiomeV1{},
		Perches:             []snapshot.PerchV1{},
		BreedingPrograms:    []snapshot.BreedingV1{},
		Specimens:           []snapshot.SpecimenV1{},
		CataloguedSpecies:   append([]string{}, w.catalogued...),
		LegendariesAcquired: append([]string{}, w.legendaries...),
		Milestones:          w.Milestones(),
		LastSaveTime:        w.nowMs,
		LastOpenTime:        w.lastOpenAtMs,
		Counters:            snapshot.CountersV1{NextSpecimen: w.nextSpecimenNum.Load()},
	}
	if st, ok := w.rng.(rngStater); ok {
		if b, err := st.State(); err == nil {
			s.Counters.RNGState = b
		}
	}
	if len(w.pendingCulls) > 0 {
		s.PendingCulls = map[string]int{}
		for t, n := range w.pendingCulls {
			if n > 0 {
				s.PendingCulls[strconv.Itoa(t)] = n
			}
		}
	}
	for _, b := range w.biomes {
		bv := snapshot.BiomeV1{
			ID:       b.ID,
			Unlocked: b.Unlocked,
			Survey:   snapshot.SurveyV1{Progress: b.Survey.Progress, Occupant: b.Survey.Occupant, UpdatedAt: b.Survey.UpdatedAtMs},
		}
		for _, f := range b.Foragers {
			bv.Foragers = append(bv.Foragers, snapshot.ForagerV1{Unlocked: f.Unlocked, Occupant: f.Occupant, AssignedAt: f.AssignedAtMs})
		}
		s.Biomes = append(s.Biomes, bv)
	}
	for _, p := range w.perches {
		s.Perches = append(s.Perches, snapshot.PerchV1{Unlocked: p.Unlocked, Occupant: p.Occupant, CooldownUntil: p.CooldownUntilMs})
	}
	for _, p := range w.programs {
		bv := snapshot.BreedingV1{
			Unlocked:          p.Unlocked,
			Active:            p.Active,
			Parent1:           p.Parent1,
			Parent2:           p.Parent2,
			Progress:          p.Progress,
			StartTime:         p.StartedAtMs,
			EstimatedDuration: p.DurationMs,
		}
		if p.Offspring != nil {
			bv.Offspring = &snapshot.OffspringV1{
				Species:     p.Offspring.Species,
				Distinction: p.Offspring.Distinction,
				Biome:       p.Offspring.Biome,
				Traits:      append([]string{}, p.Offspring.Traits...),
			}
		}
		s.BreedingPrograms = append(s.BreedingPrograms, bv)
	}
	for _, id := range w.sortedSpecimenIDs() {
		sp := w.specimens[id]
		s.Specimens = append(s.Specimens, snapshot.SpecimenV1{
			ID:               sp.ID,
			Species:          sp.Species,
			Distinction:      sp.Distinction,
			Biome:            sp.Biome,
			Traits:           append([]string{}, sp.Traits...),
			Vitality:         sp.Vitality,
			IsMature:         sp.IsMature,
			MaturityProgress: sp.MaturityProgress,
			Location:         exportLocation(sp.Location),
			IsLegendary:      sp.IsLegendary,
			BornAt:           sp.BornAtMs,
		})
	}
	sort.Strings(s.Milestones)
	return s
}

func exportLocation(l model.Location) snapshot.LocationV1 {
	l = l.Normalize()
	return snapshot.LocationV1{Kind: l.Kind.String(), Biome: l.Biome, Slot: l.Slot}
}
