package world

import (
	"sort"

	"sanctuary.game/internal/protocol"
	"sanctuary.game/internal/sim/world/logic/raritycap"
)

// enforceRarityCap runs before a specimen of distinction is created. When the tier is
// full the least valuable unused specimen is culled. When none is unused the creation
// still proceeds and a cull is queued until one becomes unused. It reports whether the
// cull was deferred.
func (w *World) enforceRarityCap(distinction int) bool {
	count := w.countTier(distinction)
	if count < w.cfg.RarityCap {
		return false
	}
	if victim, ok := w.cullVictim(distinction); ok {
		w.cull(victim, distinction)
		return false
	}
	w.pendingCulls[distinction]++
	w.emit(protocol.EventRarityCapDeferred, map[string]any{
		"distinction": distinction,
		"count":       count + 1,
		"cap":         w.cfg.RarityCap,
		"pending":     w.pendingCulls[distinction],
	})
	return true
}

// settlePendingCulls applies queued culls for tiers that have an unused specimen again.
func (w *World) settlePendingCulls() {
	if len(w.pendingCulls) == 0 {
		return
	}
	tiers := make([]int, 0, len(w.pendingCulls))
	for t := range w.pendingCulls {
		tiers = append(tiers, t)
	}
	sort.Ints(tiers)
	for _, t := range tiers {
		for w.pendingCulls[t] > 0 && w.countTier(t) > w.cfg.RarityCap {
			victim, ok := w.cullVictim(t)
			if !ok {
				break
			}
			w.cull(victim, t)
			w.pendingCulls[t]--
		}
		if excess := w.countTier(t) - w.cfg.RarityCap; excess <= 0 || w.pendingCulls[t] <= 0 {
			delete(w.pendingCulls, t)
			w.releaseExempt(t)
		}
	}
}

// releaseExempt drops the protection of tier's deferred newcomers once its queue is empty.
func (w *World) releaseExempt(distinction int) {
	for id := range w.capExempt {
		if s := w.specimens[id]; s == nil || s.Distinction == distinction {
			delete(w.capExempt, id)
		}
	}
}

func (w *World) cullVictim(distinction int) (string, bool) {
	v, ok := raritycap.Victim(w.cullCandidates(distinction))
	return v.ID, ok
}

// CullOrder lists the specimens of a distinction the cap would remove, first victim first.
func (w *World) CullOrder(distinction int) []string {
	cands := w.cullCandidates(distinction)
	raritycap.Order(cands)
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.ID)
	}
	return out
}

func (w *World) cullCandidates(distinction int) []raritycap.Candidate {
	var cands []raritycap.Candidate
	for _, s := range w.specimens {
		if s.Distinction != distinction || !s.Unused() || s.IsLegendary || w.capExempt[s.ID] {
			continue
		}
		cands = append(cands, raritycap.Candidate{
			ID:               s.ID,
			IsMature:         s.IsMature,
			MaturityProgress: s.MaturityProgress,
			Vitality:         s.Vitality,
		})
	}
	return cands
}

func (w *World) cull(id string, distinction int) {
	s := w.specimens[id]
	if s == nil {
		return
	}
	w.emit(protocol.EventRarityCapCulled, map[string]any{
		"specimen_id": s.ID,
		"species":     s.Species,
		"distinction": distinction,
		"from":        s.Location.String(),
	})
	w.removeSpecimen(s)
}

// PendingCulls returns the queued culls per distinction.
func (w *World) PendingCulls() map[int]int {
	out := make(map[int]int, len(w.pendingCulls))
	for k, v := range w.pendingCulls {
		out[k] = v
	}
	return out
}
