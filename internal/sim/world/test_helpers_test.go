package world

import (
	"testing"
	"time"

	"sanctuary.game/internal/protocol"
	"sanctuary.game/internal/sim/catalogs"
	"sanctuary.game/internal/sim/clock"
	"sanctuary.game/internal/sim/rng"
	"sanctuary.game/internal/sim/tuning"
	"sanctuary.game/internal/sim/world/kernel/model"
	"sanctuary.game/internal/sim/world/logic/genetics"
)

var testEpoch = time.Unix(1_700_000_000, 0)

func newTestWorld(t *testing.T, src rng.Source) (*World, *clock.Fake) {
	t.Helper()
	cats, err := catalogs.Default()
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	clk := clock.NewFake(testEpoch)
	if src == nil {
		src = rng.New(42)
	}
	w, err := New(WorldConfig{Tuning: tuning.Defaults(), Catalogs: cats, Clock: clk, RNG: src})
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	return w, clk
}

// starter returns the single specimen of a fresh world.
func starter(t *testing.T, w *World) *model.Specimen {
	t.Helper()
	if len(w.specimens) != 1 {
		t.Fatalf("expected one starter specimen, got %d", len(w.specimens))
	}
	for _, s := range w.specimens {
		return s
	}
	return nil
}

// putSpecimen inserts a specimen into Collection without running the rarity cap.
func putSpecimen(t *testing.T, w *World, tier int, biome string, mature bool) *model.Specimen {
	t.Helper()
	defs := w.catalogs.SpeciesFor(biome, tier)
	if len(defs) == 0 {
		t.Fatalf("no species for %s tier %d", biome, tier)
	}
	s := w.newSpecimen(defs[0].Name, tier, biome, append([]string(nil), w.catalogs.Traits.IDs[:genetics.TraitCount(tier)]...))
	if mature {
		s.IsMature = true
		s.MaturityProgress = 100
	}
	w.specimens[s.ID] = s
	return s
}

func unlockAll(w *World) {
	for _, b := range w.biomes {
		b.Unlocked = true
		for i := range b.Foragers {
			b.Foragers[i].Unlocked = true
		}
	}
	for i := range w.perches {
		w.perches[i].Unlocked = true
	}
	for i := range w.programs {
		w.programs[i].Unlocked = true
	}
}

func mustOK(t *testing.T, r Result) Result {
	t.Helper()
	if !r.OK() {
		t.Fatalf("unexpected failure: %s", r.Error())
	}
	return r
}

func countEvents(evs []protocol.Event, typ string) int {
	n := 0
	for _, ev := range evs {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func assertConsistent(t *testing.T, w *World) {
	t.Helper()
	if problems := w.CheckIntegrity(); len(problems) > 0 {
		t.Fatalf("integrity: %v", problems)
	}
}
