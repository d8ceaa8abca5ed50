package genetics

import (
	"testing"

	"sanctuary.game/internal/sim/rng"
	"sanctuary.game/internal/sim/tuning"
)

var catalog = []string{"Swift", "Hardy", "Keen", "Nurturing", "Mystic", "Gifted"}

func TestTraitCount(t *testing.T) {
	want := []int{1, 1, 2, 3, 3}
	for d := 1; d <= 5; d++ {
		if got := TraitCount(d); got != want[d-1] {
			t.Fatalf("tier %d: expected %d got %d", d, want[d-1], got)
		}
	}
}

func TestInheritRarityBranches(t *testing.T) {
	odds := RarityOdds{Keep: 0.6, Up: 0.3}
	cases := []struct {
		d1, d2 int
		roll   float64
		want   int
	}{
		{2, 3, 0.1, 3},
		{2, 3, 0.7, 4},
		{2, 3, 0.95, 2},
		{5, 5, 0.7, 5},
		{1, 1, 0.95, 1},
	}
	for _, c := range cases {
		if got := InheritRarity(c.d1, c.d2, odds, rng.NewFixed(c.roll)); got != c.want {
			t.Fatalf("InheritRarity(%d,%d,%v): expected %d got %d", c.d1, c.d2, c.roll, c.want, got)
		}
	}
}

func TestInheritTraitsPadsIdenticalParents(t *testing.T) {
	p := Parent{Distinction: 2, Biome: "forest", Traits: []string{"Keen"}}
	for tier := 1; tier <= 5; tier++ {
		got := InheritTraits(p, p, tier, Bonus{}, catalog, rng.New(7))
		if len(got) != TraitCount(tier) {
			t.Fatalf("tier %d: expected %d traits, got %v", tier, TraitCount(tier), got)
		}
		if got[0] != "Keen" {
			t.Fatalf("tier %d: expected inherited trait first, got %v", tier, got)
		}
		seen := map[string]bool{}
		for _, tr := range got {
			if seen[tr] {
				t.Fatalf("duplicate trait in %v", got)
			}
			seen[tr] = true
		}
	}
}

func TestInheritTraitsPrefersParentPool(t *testing.T) {
	p1 := Parent{Distinction: 4, Traits: []string{"Swift", "Hardy", "Keen"}}
	p2 := Parent{Distinction: 4, Traits: []string{"Swift", "Hardy", "Keen"}}
	got := InheritTraits(p1, p2, 4, Bonus{}, catalog, rng.New(3))
	for _, tr := range got {
		if tr != "Swift" && tr != "Hardy" && tr != "Keen" {
			t.Fatalf("expected parent traits only, got %v", got)
		}
	}
}

func TestInheritTraitsGuestBonus(t *testing.T) {
	p := Parent{Distinction: 1, Traits: []string{"Swift"}}
	// Picks: p1 (0.0), p2 (0.0), bonus roll (0.0 < chance), guest pick (0.0).
	got := InheritTraits(p, p, 1, Bonus{GuestTraits: []string{"Gifted"}, Chance: 0.15}, catalog, rng.NewFixed(0))
	if len(got) != 1 || got[0] != "Gifted" {
		t.Fatalf("expected guest trait swap, got %v", got)
	}
	got = InheritTraits(p, p, 1, Bonus{GuestTraits: []string{"Gifted"}, Chance: 0.15}, catalog, rng.NewFixed(0.5))
	if len(got) != 1 || got[0] != "Swift" {
		t.Fatalf("expected no swap, got %v", got)
	}
}

func TestSpawnTraitsDistinct(t *testing.T) {
	got := SpawnTraits(5, catalog, rng.New(1))
	if len(got) != 3 || got[0] == got[1] || got[1] == got[2] || got[0] == got[2] {
		t.Fatalf("expected 3 distinct traits, got %v", got)
	}
}

func TestLegendaryEligible(t *testing.T) {
	a := Parent{Distinction: 5, Biome: "forest"}
	b := Parent{Distinction: 5, Biome: "forest"}
	if !LegendaryEligible(a, b, true) {
		t.Fatalf("expected eligible")
	}
	if LegendaryEligible(a, b, false) {
		t.Fatalf("expected crystal requirement")
	}
	b.Biome = "tundra"
	if LegendaryEligible(a, b, true) {
		t.Fatalf("expected same-biome requirement")
	}
	b.Biome, b.Distinction = "forest", 4
	if LegendaryEligible(a, b, true) {
		t.Fatalf("expected tier-5 requirement")
	}
}

func TestDurationMs(t *testing.T) {
	b := tuning.Defaults().Breeding
	if got := DurationMs(b, 1, false); got != 60_000 {
		t.Fatalf("expected 60000, got %v", got)
	}
	if got := DurationMs(b, 5, true); got != 7200_000*0.75 {
		t.Fatalf("expected shortened 2h, got %v", got)
	}
	if got := LegendaryChance(b, true); got < 0.1499 || got > 0.1501 {
		t.Fatalf("expected 0.15, got %v", got)
	}
}
