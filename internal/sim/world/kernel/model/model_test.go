package model

import "testing"

func TestLocationNormalize(t *testing.T) {
	a := Location{Kind: LocPerch, Biome: "forest", Slot: 2}.Normalize()
	if a != Perched(2) {
		t.Fatalf("expected perch(2), got %v", a)
	}
	b := Location{Kind: LocCollection, Biome: "x", Slot: 9}.Normalize()
	if b != Collection() {
		t.Fatalf("expected collection, got %v", b)
	}
	if Forager("forest", 1).Normalize() != Forager("forest", 1) {
		t.Fatalf("forager must keep biome and slot")
	}
}

func TestLocationKindRoundTrip(t *testing.T) {
	for _, k := range []LocationKind{LocCollection, LocForager, LocSurveyor, LocPerch, LocBreeding} {
		got, ok := ParseLocationKind(k.String())
		if !ok || got != k {
			t.Fatalf("round trip failed for %v", k)
		}
	}
	if _, ok := ParseLocationKind("forager_forest_0"); ok {
		t.Fatalf("string-encoded tags must not parse")
	}
}

func TestSpecimenRoles(t *testing.T) {
	s := &Specimen{Location: Collection()}
	if !s.Unused() || s.Working() {
		t.Fatalf("collection specimen should be unused and idle")
	}
	s.Location = Surveyor("forest")
	if s.Unused() || !s.Working() {
		t.Fatalf("surveyor should be working")
	}
	s.Location = Breeding(0)
	if s.Unused() || s.Working() {
		t.Fatalf("breeding specimen is neither unused nor working")
	}
}

func TestSpecimenCloneIsDeep(t *testing.T) {
	s := &Specimen{ID: "B1", Traits: []string{"Swift"}}
	c := s.Clone()
	c.Traits[0] = "Hardy"
	if s.Traits[0] != "Swift" {
		t.Fatalf("clone shares trait slice")
	}
}

func TestHighestUnlockedForager(t *testing.T) {
	var b Biome
	if b.HighestUnlockedForager() != -1 {
		t.Fatalf("expected -1 for locked biome")
	}
	b.Foragers[0].Unlocked = true
	b.Foragers[2].Unlocked = true
	if got := b.HighestUnlockedForager(); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
}

func TestProgramIdleKeepsUnlock(t *testing.T) {
	p := BreedingProgram{Unlocked: true, Active: true, Parent1: "B1", Progress: 40}
	p.Idle()
	if !p.Unlocked || p.Active || p.Parent1 != "" || p.Progress != 0 {
		t.Fatalf("unexpected program after Idle: %+v", p)
	}
}
