package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"sanctuary.game/internal/persistence/snapshot"
)

func TestArchiveRun_WritesPreviousRunOnPrestige(t *testing.T) {
	dir := t.TempDir()
	prev := snapshot.SaveV1{
		Seeds:            1234,
		TotalSeedsEarned: 99999,
		Crystals:         []string{"forest"},
		PrestigeCount:    1,
		Specimens:        []snapshot.SpecimenV1{{ID: "s1", Species: "Robin", Distinction: 1, Biome: "forest", Vitality: 10, Location: snapshot.LocationV1{Kind: "collection"}}},
		LastSaveTime:     5000,
	}
	cur := snapshot.SaveV1{
		Seeds:         50,
		Crystals:      []string{"forest", "wetland"},
		PrestigeCount: 2,
		LastSaveTime:  6000,
	}

	n, path, ok, err := ArchiveRun(dir, prev, cur)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if !ok || n != 2 {
		t.Fatalf("archived=%v prestige=%d, want true 2", ok, n)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("archived save missing: %v", err)
	}
	h, body, err := snapshot.ReadFileRaw(path)
	if err != nil {
		t.Fatalf("read archived: %v", err)
	}
	if h.Version != snapshot.Version {
		t.Fatalf("header version=%q", h.Version)
	}
	var got snapshot.SaveV1
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode archived: %v", err)
	}
	if got.Seeds != 1234 || got.PrestigeCount != 1 {
		t.Fatalf("archived doc seeds=%v prestige=%d", got.Seeds, got.PrestigeCount)
	}

	metas, err := ReadMeta(dir)
	if err != nil {
		t.Fatalf("meta: %v", err)
	}
	if len(metas) != 1 {
		t.Fatalf("metas=%d want 1", len(metas))
	}
	m := metas[0]
	if m.Prestige != 2 || m.Specimens != 1 || len(m.CrystalsEarned) != 1 || m.CrystalsEarned[0] != "wetland" {
		t.Fatalf("meta=%+v", m)
	}
	if m.Snapshot != filepath.Base(path) {
		t.Fatalf("meta snapshot=%q want %q", m.Snapshot, filepath.Base(path))
	}
}

func TestArchiveRun_SkipsWithinRun(t *testing.T) {
	dir := t.TempDir()
	prev := snapshot.SaveV1{PrestigeCount: 1, LastSaveTime: 1}
	cur := snapshot.SaveV1{PrestigeCount: 1, LastSaveTime: 2}
	if _, _, ok, err := ArchiveRun(dir, prev, cur); err != nil || ok {
		t.Fatalf("archived=%v err=%v, want no archive", ok, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "archives")); !os.IsNotExist(err) {
		t.Fatalf("archives dir should not exist: %v", err)
	}
}
