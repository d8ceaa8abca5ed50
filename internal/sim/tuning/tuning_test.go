package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsValidate(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tuning.yaml")
	raw := []byte("tick_rate_hz: 30\nrarity_cap: 6\nvitality:\n  nominal_restore_sec: 1800\n")
	if err := os.WriteFile(p, raw, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tu, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tu.TickRateHz != 30 || tu.RarityCap != 6 {
		t.Fatalf("overlay not applied: %+v", tu)
	}
	if tu.Vitality.NominalRestoreSec != 1800 {
		t.Fatalf("expected nominal 1800, got %v", tu.Vitality.NominalRestoreSec)
	}
	if len(tu.Vitality.Capacity) != Tiers || tu.Vitality.Capacity[4] != 400 {
		t.Fatalf("expected default capacity table kept, got %v", tu.Vitality.Capacity)
	}
}

func TestLoadRejectsShortTable(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tuning.yaml")
	if err := os.WriteFile(p, []byte("income:\n  base_per_sec: [1, 2]\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(p); err == nil {
		t.Fatalf("expected validation error for short table")
	}
}

func TestTierIndex(t *testing.T) {
	cases := map[int]int{-1: 0, 0: 0, 1: 0, 3: 2, 5: 4, 9: 4}
	for in, want := range cases {
		if got := TierIndex(in); got != want {
			t.Fatalf("TierIndex(%d): expected %d got %d", in, want, got)
		}
	}
}

func TestDigestStable(t *testing.T) {
	a := Defaults().Digest()
	b := Defaults().Digest()
	if a == "" || a != b {
		t.Fatalf("digest unstable: %q vs %q", a, b)
	}
	changed := Defaults()
	changed.RarityCap = 9
	if changed.Digest() == a {
		t.Fatalf("digest should change with tuning")
	}
}
