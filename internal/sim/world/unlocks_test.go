package world

import (
	"testing"
	"time"

	"sanctuary.game/internal/protocol"
	"sanctuary.game/internal/sim/world/kernel/model"
)

func TestUnlockBiomeOrderAndCost(t *testing.T) {
	w, _ := newTestWorld(t, nil)
	if r := w.UnlockBiome("coastal"); r.Code != protocol.ErrPrecondition {
		t.Fatalf("expected %s for out-of-order unlock, got %q", protocol.ErrPrecondition, r.Code)
	}
	if r := w.UnlockBiome("mountain"); r.Code != protocol.ErrNoResource {
		t.Fatalf("expected %s with 50 seeds, got %q", protocol.ErrNoResource, r.Code)
	}
	if r := w.UnlockBiome("forest"); r.Code != protocol.ErrConflict {
		t.Fatalf("expected %s for an unlocked biome, got %q", protocol.ErrConflict, r.Code)
	}
	if r := w.UnlockBiome("atlantis"); r.Code != protocol.ErrNotFound {
		t.Fatalf("expected %s, got %q", protocol.ErrNotFound, r.Code)
	}
	if !w.starterOnly("forest") {
		t.Fatalf("starting biome should be tier-1 only before the second unlock")
	}

	w.ledger.Seeds = 600
	mustOK(t, w.UnlockBiome("mountain"))
	if w.Ledger().Seeds != 100 {
		t.Fatalf("expected 100 seeds left, got %v", w.Ledger().Seeds)
	}
	b, _ := w.Biome("mountain")
	if !b.Unlocked || !b.Foragers[0].Unlocked || b.Foragers[1].Unlocked {
		t.Fatalf("unexpected mountain state %+v", b)
	}
	if w.starterOnly("forest") || !w.HasFlag(MilestoneStarterUnrestricted) {
		t.Fatalf("second unlock should lift the starter restriction")
	}
}

func TestUnlockForagerSlotsInOrder(t *testing.T) {
	w, _ := newTestWorld(t, nil)
	w.ledger.Seeds = 1000
	if r := w.UnlockForagerSlot("forest", 2); r.Code != protocol.ErrPrecondition {
		t.Fatalf("expected %s, got %q", protocol.ErrPrecondition, r.Code)
	}
	mustOK(t, w.UnlockForagerSlot("forest", 1))
	mustOK(t, w.UnlockForagerSlot("forest", 2))
	if w.Ledger().Seeds != 600 {
		t.Fatalf("expected 400 seeds spent, have %v", w.Ledger().Seeds)
	}
	if r := w.UnlockForagerSlot("mountain", 1); r.Code != protocol.ErrLocked {
		t.Fatalf("expected %s in a locked biome, got %q", protocol.ErrLocked, r.Code)
	}
}

func TestUnlockPerchAndBreeding(t *testing.T) {
	w, _ := newTestWorld(t, nil)
	if r := w.UnlockPerch(2); r.Code != protocol.ErrPrecondition {
		t.Fatalf("expected %s, got %q", protocol.ErrPrecondition, r.Code)
	}
	w.ledger.Seeds = 1500
	mustOK(t, w.UnlockPerch(1))
	mustOK(t, w.UnlockBreedingProgram(0))
	if w.Ledger().Seeds != 300 {
		t.Fatalf("expected 300 seeds left, got %v", w.Ledger().Seeds)
	}
	if r := w.UnlockBreedingProgram(BreedingProgramCount); r.Code != protocol.ErrBadRequest {
		t.Fatalf("expected %s, got %q", protocol.ErrBadRequest, r.Code)
	}
}

func TestRestoreTapCooldown(t *testing.T) {
	w, _ := newTestWorld(t, nil)
	s := starter(t, w)
	s.Vitality = 10
	mustOK(t, w.Assign(model.Perched(0), s.ID))

	mustOK(t, w.RestoreTap(0))
	if s.Vitality != 30 {
		t.Fatalf("expected +20%% of capacity, got %v", s.Vitality)
	}
	if r := w.RestoreTap(0); r.Code != protocol.ErrConflict {
		t.Fatalf("expected cooldown rejection, got %q", r.Code)
	}
	w.Step(31 * time.Second)
	mustOK(t, w.RestoreTap(0))
	if r := w.RestoreTap(1); r.Code != protocol.ErrLocked {
		t.Fatalf("expected %s for a locked perch, got %q", protocol.ErrLocked, r.Code)
	}
}

func TestSurveyTapAddsFixedShare(t *testing.T) {
	w, _ := newTestWorld(t, nil)
	mustOK(t, w.SurveyTap("forest"))
	b, _ := w.Biome("forest")
	if b.Survey.Progress != 4 {
		t.Fatalf("expected 1%% of 400, got %v", b.Survey.Progress)
	}
	if r := w.SurveyTap("mountain"); r.Code != protocol.ErrLocked {
		t.Fatalf("expected %s, got %q", protocol.ErrLocked, r.Code)
	}
}

func TestSetFlag(t *testing.T) {
	w, _ := newTestWorld(t, nil)
	mustOK(t, w.SetFlag("tutorial_done"))
	if !w.HasFlag("tutorial_done") {
		t.Fatalf("flag not recorded")
	}
	if r := w.SetFlag(""); r.Code != protocol.ErrBadRequest {
		t.Fatalf("expected %s, got %q", protocol.ErrBadRequest, r.Code)
	}
}
