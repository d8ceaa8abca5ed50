package world

import (
	"sanctuary.game/internal/protocol"
)

// UnlockBiome unlocks the next biome in order together with its first forager slot.
func (w *World) UnlockBiome(id string) Result {
	i := w.biomeIndex(id)
	if i < 0 {
		return w.reject(protocol.ErrNotFound, "unknown biome %s", id)
	}
	b := w.biomes[i]
	if b.Unlocked {
		return w.reject(protocol.ErrConflict, "biome %s is already unlocked", id)
	}
	if i > 0 && !w.biomes[i-1].Unlocked {
		return w.reject(protocol.ErrPrecondition, "unlock %s first", w.biomes[i-1].ID)
	}
	cost := w.catalogs.Biomes.ByID[id].UnlockCost
	if !w.spend(cost) {
		return w.reject(protocol.ErrNoResource, "need %.0f seeds", cost)
	}
	b.Unlocked = true
	b.Foragers[0].Unlocked = true
	if i == 1 {
		w.milestones[MilestoneStarterUnrestricted] = true
	}
	return w.ok()
}

// UnlockForagerSlot unlocks forager slot of an unlocked biome. Slots unlock in order.
func (w *World) UnlockForagerSlot(biome string, slot int) Result {
	b := w.biome(biome)
	if b == nil {
		return w.reject(protocol.ErrNotFound, "unknown biome %s", biome)
	}
	if !b.Unlocked {
		return w.reject(protocol.ErrLocked, "biome %s is locked", biome)
	}
	if slot < 0 || slot >= len(b.Foragers) {
		return w.reject(protocol.ErrBadRequest, "forager slot %d out of range", slot)
	}
	if b.Foragers[slot].Unlocked {
		return w.reject(protocol.ErrConflict, "forager slot %d is already unlocked", slot)
	}
	if slot > 0 && !b.Foragers[slot-1].Unlocked {
		return w.reject(protocol.ErrPrecondition, "unlock forager slot %d first", slot-1)
	}
	cost := w.catalogs.Biomes.ByID[biome].ForagerSlotCosts[slot]
	if !w.spend(cost) {
		return w.reject(protocol.ErrNoResource, "need %.0f seeds", cost)
	}
	b.Foragers[slot].Unlocked = true
	return w.ok()
}

// UnlockPerch unlocks perch i. Perches unlock in order.
func (w *World) UnlockPerch(i int) Result {
	if i < 0 || i >= len(w.perches) {
		return w.reject(protocol.ErrBadRequest, "perch %d out of range", i)
	}
	if w.perches[i].Unlocked {
		return w.reject(protocol.ErrConflict, "perch %d is already unlocked", i)
	}
	if i > 0 && !w.perches[i-1].Unlocked {
		return w.reject(protocol.ErrPrecondition, "unlock perch %d first", i-1)
	}
	cost := costAt(w.cfg.Unlocks.PerchCosts, i)
	if !w.spend(cost) {
		return w.reject(protocol.ErrNoResource, "need %.0f seeds", cost)
	}
	w.perches[i].Unlocked = true
	return w.ok()
}

// UnlockBreedingProgram unlocks program i. Programs unlock in order.
func (w *World) UnlockBreedingProgram(i int) Result {
	if i < 0 || i >= len(w.programs) {
		return w.reject(protocol.ErrBadRequest, "breeding program %d out of range", i)
	}
	if w.programs[i].Unlocked {
		return w.reject(protocol.ErrConflict, "breeding program %d is already unlocked", i)
	}
	if i > 0 && !w.programs[i-1].Unlocked {
		return w.reject(protocol.ErrPrecondition, "unlock breeding program %d first", i-1)
	}
	cost := costAt(w.cfg.Unlocks.BreedingCosts, i)
	if !w.spend(cost) {
		return w.reject(protocol.ErrNoResource, "need %.0f seeds", cost)
	}
	w.programs[i].Unlocked = true
	return w.ok()
}

// costAt reads a cost table, repeating the last entry for short tables.
func costAt(costs []float64, i int) float64 {
	if i < len(costs) {
		return costs[i]
	}
	return costs[len(costs)-1]
}

// SetFlag records an opaque milestone flag for the UI.
func (w *World) SetFlag(flag string) Result {
	if flag == "" {
		return w.reject(protocol.ErrBadRequest, "empty flag")
	}
	w.milestones[flag] = true
	return w.ok()
}

func (w *World) HasFlag(flag string) bool { return w.milestones[flag] }
