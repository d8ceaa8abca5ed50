package world

import (
	"sanctuary.game/internal/protocol"
	"sanctuary.game/internal/sim/world/kernel/model"
)

// Prestige trades progress for the next crystal. Only perched specimens survive, reset
// to full vitality and immaturity. Perch and breeding unlocks, the species catalogue and
// milestones are kept.
func (w *World) Prestige() Result {
	final := w.biomes[len(w.biomes)-1]
	if !final.Unlocked {
		return w.reject(protocol.ErrPrecondition, "%s must be unlocked", final.ID)
	}
	perched := 0
	for i := range w.perches {
		if w.perches[i].Occupant != "" {
			perched++
		}
	}
	if perched < w.cfg.Prestige.MinPerched {
		return w.reject(protocol.ErrPrecondition, "need %d perched specimens, have %d", w.cfg.Prestige.MinPerched, perched)
	}
	awarded := len(w.prestige.Crystals)
	if awarded >= w.cfg.Prestige.MaxCrystals || awarded >= len(w.biomes) {
		return w.reject(protocol.ErrPrecondition, "all crystals awarded")
	}
	for i := range w.perches {
		if id := w.perches[i].Occupant; id != "" {
			if s := w.specimens[id]; s == nil || s.Location != model.Perched(i) {
				return w.integrity("perch %d references %s which is not perched there", i, id)
			}
		}
	}

	crystal := w.biomes[awarded].ID
	w.prestige.Crystals = append(w.prestige.Crystals, crystal)
	w.prestige.Count++

	for _, id := range w.sortedSpecimenIDs() {
		s := w.specimens[id]
		if s.Location.Kind != model.LocPerch {
			delete(w.specimens, id)
			continue
		}
		s.Vitality = w.vit.Capacity(s.Distinction)
		s.IsMature = false
		s.MaturityProgress = 0
	}
	w.ledger.Seeds = w.cfg.StartingSeeds
	for i, b := range w.biomes {
		b.Reset()
		if i == 0 {
			b.Unlocked = true
			b.Foragers[0].Unlocked = true
		}
	}
	for i := range w.programs {
		w.programs[i].Idle()
	}
	for i := range w.perches {
		w.perches[i].CooldownUntilMs = 0
	}
	w.pendingCulls = map[int]int{}
	w.capExempt = map[string]bool{}
	w.exhaustedNotified = map[string]bool{}

	w.emit(protocol.EventCrystalAwarded, map[string]any{"crystal": crystal, "count": len(w.prestige.Crystals)})
	w.emit(protocol.EventPrestige, map[string]any{"prestige_count": w.prestige.Count, "survivors": len(w.specimens)})
	return w.ok()
}

func (w *World) PrestigeState() model.Prestige {
	p := w.prestige
	p.Crystals = append([]string(nil), p.Crystals...)
	return p
}
