package world

import (
	"testing"

	"sanctuary.game/internal/protocol"
	"sanctuary.game/internal/sim/world/kernel/model"
)

func TestPrestigeKeepsOnlyPerchedGuests(t *testing.T) {
	w, _ := newTestWorld(t, nil)
	unlockAll(w)
	w.ledger.Seeds = 123456
	st := starter(t, w)

	var guests []*model.Specimen
	for i := 0; i < PerchCount; i++ {
		s := putSpecimen(t, w, 1+i%3, "forest", true)
		s.Vitality = 1
		mustOK(t, w.Assign(model.Perched(i), s.ID))
		guests = append(guests, s)
	}
	mustOK(t, w.Assign(model.Forager("forest", 0), st.ID))
	putSpecimen(t, w, 2, "mountain", true)

	r := mustOK(t, w.Prestige())
	if countEvents(r.Events, protocol.EventPrestige) != 1 || countEvents(r.Events, protocol.EventCrystalAwarded) != 1 {
		t.Fatalf("expected PRESTIGE and CRYSTAL_AWARDED, got %v", r.Events)
	}
	if len(w.specimens) != PerchCount {
		t.Fatalf("expected %d survivors, got %d", PerchCount, len(w.specimens))
	}
	if _, ok := w.Specimen(st.ID); ok {
		t.Fatalf("the foraging starter should not survive prestige")
	}
	for i, g := range guests {
		s, ok := w.Specimen(g.ID)
		if !ok {
			t.Fatalf("guest %s did not survive", g.ID)
		}
		if s.Location != model.Perched(i) {
			t.Fatalf("guest %s moved to %s", g.ID, s.Location)
		}
		if s.Vitality != w.vit.Capacity(s.Distinction) || s.IsMature || s.MaturityProgress != 0 {
			t.Fatalf("guest %s not reset: %+v", g.ID, s)
		}
	}
	if w.Ledger().Seeds != w.cfg.StartingSeeds {
		t.Fatalf("expected seeds reset to %v, got %v", w.cfg.StartingSeeds, w.Ledger().Seeds)
	}
	for i, b := range w.biomes {
		if b.Unlocked != (i == 0) {
			t.Fatalf("biome %s unlocked=%v after prestige", b.ID, b.Unlocked)
		}
	}
	if !w.biomes[0].Foragers[0].Unlocked || w.biomes[0].Foragers[1].Unlocked {
		t.Fatalf("starting biome should keep only its first forager slot")
	}
	if p := w.PrestigeState(); p.Count != 1 || len(p.Crystals) != 1 || p.Crystals[0] != "forest" {
		t.Fatalf("unexpected prestige state %+v", p)
	}
	if !w.perches[4].Unlocked || !w.programs[0].Unlocked {
		t.Fatalf("perch and breeding unlocks must survive prestige")
	}
	assertConsistent(t, w)
}

func TestPrestigePreconditions(t *testing.T) {
	w, _ := newTestWorld(t, nil)
	if r := w.Prestige(); r.Code != protocol.ErrPrecondition {
		t.Fatalf("expected %s with the final biome locked, got %q", protocol.ErrPrecondition, r.Code)
	}
	unlockAll(w)
	for i := 0; i < PerchCount-1; i++ {
		mustOK(t, w.Assign(model.Perched(i), putSpecimen(t, w, 1, "forest", false).ID))
	}
	seeds := w.Ledger().Seeds
	if r := w.Prestige(); r.Code != protocol.ErrPrecondition {
		t.Fatalf("expected %s with four perched, got %q", protocol.ErrPrecondition, r.Code)
	}
	if w.Ledger().Seeds != seeds || len(w.specimens) != PerchCount {
		t.Fatalf("rejected prestige changed state")
	}
}
