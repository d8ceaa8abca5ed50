package world

import (
	"sanctuary.game/internal/protocol"
	"sanctuary.game/internal/sim/world/kernel/model"
)

// slotOccupant returns the back-reference field for a single-occupant role, or nil when
// the role does not name an existing slot. Breeding programs hold two parents and have
// no single back-reference.
func (w *World) slotOccupant(role model.Location) *string {
	switch role.Kind {
	case model.LocForager:
		b := w.biome(role.Biome)
		if b == nil || role.Slot < 0 || role.Slot >= len(b.Foragers) {
			return nil
		}
		return &b.Foragers[role.Slot].Occupant
	case model.LocSurveyor:
		b := w.biome(role.Biome)
		if b == nil {
			return nil
		}
		return &b.Survey.Occupant
	case model.LocPerch:
		if role.Slot < 0 || role.Slot >= len(w.perches) {
			return nil
		}
		return &w.perches[role.Slot].Occupant
	}
	return nil
}

// checkRole validates that role exists and is unlocked.
func (w *World) checkRole(role model.Location) (string, string) {
	switch role.Kind {
	case model.LocForager, model.LocSurveyor:
		b := w.biome(role.Biome)
		if b == nil {
			return protocol.ErrNotFound, "unknown biome " + role.Biome
		}
		if !b.Unlocked {
			return protocol.ErrLocked, "biome " + role.Biome + " is locked"
		}
		if role.Kind == model.LocForager {
			if role.Slot < 0 || role.Slot >= len(b.Foragers) {
				return protocol.ErrBadRequest, "forager slot out of range"
			}
			if !b.Foragers[role.Slot].Unlocked {
				return protocol.ErrLocked, "forager slot is locked"
			}
		}
	case model.LocPerch:
		if role.Slot < 0 || role.Slot >= len(w.perches) {
			return protocol.ErrBadRequest, "perch out of range"
		}
		if !w.perches[role.Slot].Unlocked {
			return protocol.ErrLocked, "perch is locked"
		}
	default:
		return protocol.ErrBadRequest, "role " + role.Kind.String() + " is not assignable"
	}
	return "", ""
}

// locationAgrees reports whether a specimen's location matches its slot's back-reference.
func (w *World) locationAgrees(s *model.Specimen) bool {
	switch s.Location.Kind {
	case model.LocCollection:
		return true
	case model.LocBreeding:
		i := s.Location.Slot
		return i >= 0 && i < len(w.programs) && w.programs[i].Active && w.programs[i].HasParent(s.ID)
	}
	p := w.slotOccupant(s.Location)
	return p != nil && *p == s.ID
}

// vacate returns s to Collection, clearing its previous back-reference.
func (w *World) vacate(s *model.Specimen) {
	switch s.Location.Kind {
	case model.LocCollection:
		return
	case model.LocBreeding:
	default:
		if p := w.slotOccupant(s.Location); p != nil && *p == s.ID {
			*p = ""
		} else {
			w.anomaly("vacate %s: %s has no matching back-reference", s.ID, s.Location)
		}
	}
	s.Location = model.Collection()
	delete(w.exhaustedNotified, s.ID)
}

// place writes both sides of an assignment. The role must be empty.
func (w *World) place(s *model.Specimen, role model.Location) {
	role = role.Normalize()
	p := w.slotOccupant(role)
	*p = s.ID
	switch role.Kind {
	case model.LocForager:
		w.biome(role.Biome).Foragers[role.Slot].AssignedAtMs = w.nowMs
	case model.LocSurveyor:
		w.biome(role.Biome).Survey.UpdatedAtMs = w.nowMs
	}
	s.Location = role
	delete(w.exhaustedNotified, s.ID)
}

// Assign moves specimen id into role. The specimen's previous role is vacated and any
// previous occupant of role goes back to Collection. Assigning to Collection is Recall.
func (w *World) Assign(role model.Location, id string) Result {
	role = role.Normalize()
	switch role.Kind {
	case model.LocCollection:
		return w.Recall(id)
	case model.LocBreeding:
		return w.reject(protocol.ErrBadRequest, "breeding programs are entered with StartBreeding")
	}
	if code, msg := w.checkRole(role); code != "" {
		return w.reject(code, "%s", msg)
	}
	s := w.specimens[id]
	if s == nil {
		return w.reject(protocol.ErrNotFound, "unknown specimen %s", id)
	}
	if !w.locationAgrees(s) {
		return w.integrity("specimen %s at %s disagrees with its slot", s.ID, s.Location)
	}
	if s.Location.Kind == model.LocBreeding {
		return w.reject(protocol.ErrConflict, "specimen %s is incubating", id)
	}
	if s.Location == role {
		return w.reject(protocol.ErrConflict, "specimen %s already holds %s", id, role)
	}
	if role.Kind.Working() && s.Vitality <= 0 {
		return w.reject(protocol.ErrExhausted, "specimen %s is exhausted; rest it on a perch first", id)
	}

	occ := w.slotOccupant(role)
	var prev *model.Specimen
	if *occ != "" {
		prev = w.specimens[*occ]
		if prev == nil {
			return w.integrity("%s references missing specimen %s", role, *occ)
		}
	}
	if prev != nil {
		w.vacate(prev)
	}
	w.vacate(s)
	w.place(s, role)
	return w.ok()
}

// Unassign returns the occupant of role to Collection.
func (w *World) Unassign(role model.Location) Result {
	role = role.Normalize()
	occ := w.slotOccupant(role)
	if occ == nil {
		return w.reject(protocol.ErrBadRequest, "role %s cannot be unassigned", role)
	}
	if *occ == "" {
		return w.reject(protocol.ErrNotFound, "role %s is empty", role)
	}
	s := w.specimens[*occ]
	if s == nil {
		return w.integrity("%s references missing specimen %s", role, *occ)
	}
	if s.Location != role {
		return w.integrity("%s references %s which is at %s", role, s.ID, s.Location)
	}
	w.vacate(s)
	return w.ok()
}

// Recall returns specimen id to Collection from whatever role it holds.
func (w *World) Recall(id string) Result {
	s := w.specimens[id]
	if s == nil {
		return w.reject(protocol.ErrNotFound, "unknown specimen %s", id)
	}
	if !w.locationAgrees(s) {
		return w.integrity("specimen %s at %s disagrees with its slot", s.ID, s.Location)
	}
	switch s.Location.Kind {
	case model.LocBreeding:
		return w.reject(protocol.ErrConflict, "specimen %s is incubating", id)
	case model.LocCollection:
		return w.reject(protocol.ErrConflict, "specimen %s is already in the collection", id)
	}
	w.vacate(s)
	return w.ok()
}

// Occupant returns the specimen holding role.
func (w *World) Occupant(role model.Location) (string, bool) {
	p := w.slotOccupant(role.Normalize())
	if p == nil || *p == "" {
		return "", false
	}
	return *p, true
}
