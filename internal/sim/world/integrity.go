package world

import (
	"fmt"

	"sanctuary.game/internal/sim/world/kernel/model"
)

// CheckIntegrity lists every violated structural invariant: dangling occupants,
// locations that disagree with their slot, specimens referenced by two slots, and
// vitality or maturity outside bounds. An empty result means the state is consistent.
func (w *World) CheckIntegrity() []string {
	var out []string
	refs := map[string]string{}
	ref := func(role model.Location, id string) {
		if id == "" {
			return
		}
		s := w.specimens[id]
		if s == nil {
			out = append(out, fmt.Sprintf("%s references missing specimen %s", role, id))
			return
		}
		if prev, dup := refs[id]; dup {
			out = append(out, fmt.Sprintf("%s referenced by %s and %s", id, prev, role))
		}
		refs[id] = role.String()
		if s.Location != role.Normalize() {
			out = append(out, fmt.Sprintf("%s references %s which is at %s", role, id, s.Location))
		}
	}
	for _, b := range w.biomes {
		for i, f := range b.Foragers {
			ref(model.Forager(b.ID, i), f.Occupant)
		}
		ref(model.Surveyor(b.ID), b.Survey.Occupant)
	}
	for i, p := range w.perches {
		ref(model.Perched(i), p.Occupant)
	}
	for i, p := range w.programs {
		if !p.Active {
			continue
		}
		ref(model.Breeding(i), p.Parent1)
		ref(model.Breeding(i), p.Parent2)
	}
	for _, id := range w.sortedSpecimenIDs() {
		s := w.specimens[id]
		if s.Location.Kind != model.LocCollection && !w.locationAgrees(s) {
			out = append(out, fmt.Sprintf("specimen %s at %s has no back-reference", id, s.Location))
		}
		if c := w.vit.Capacity(s.Distinction); s.Vitality < 0 || s.Vitality > c {
			out = append(out, fmt.Sprintf("specimen %s vitality %v outside [0,%v]", id, s.Vitality, c))
		}
		if s.MaturityProgress < 0 || s.MaturityProgress > 100 {
			out = append(out, fmt.Sprintf("specimen %s maturity %v outside [0,100]", id, s.MaturityProgress))
		}
	}
	if w.ledger.Seeds < 0 {
		out = append(out, fmt.Sprintf("seeds %v negative", w.ledger.Seeds))
	}
	return out
}
