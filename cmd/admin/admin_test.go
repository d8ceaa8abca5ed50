package main

import (
	"bytes"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sanctuary.game/internal/persistence/export"
	"sanctuary.game/internal/persistence/snapshot"
	"sanctuary.game/internal/protocol"
	"sanctuary.game/internal/sim/catalogs"
	"sanctuary.game/internal/sim/clock"
	"sanctuary.game/internal/sim/tuning"
	"sanctuary.game/internal/sim/world"
)

// workingSave returns a fresh game whose starter bird forages in the first biome.
func workingSave(t *testing.T) (snapshot.SaveV1, tuning.Tuning, *catalogs.Catalogs) {
	t.Helper()
	cats, err := catalogs.Default()
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	tune := tuning.Defaults()
	w, err := world.New(world.WorldConfig{Tuning: tune, Catalogs: cats, Clock: clock.NewFake(time.Unix(1_700_000_000, 0))})
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	id := w.View().Specimens[0].ID
	r := w.Apply(protocol.CmdAssign, protocol.CmdArgs{
		Role:       &protocol.RoleRef{Kind: "FORAGER", Biome: cats.FirstBiome(), Slot: 0},
		SpecimenID: id,
	})
	if !r.OK() {
		t.Fatalf("assign: %s", r.Error())
	}
	return w.ExportSave(), tune, cats
}

func TestBackfillAppliesOfflineIncome(t *testing.T) {
	doc, tune, cats := workingSave(t)
	next, events, err := backfill(doc, tune, cats, 100*time.Second)
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}
	want := doc.Seeds + 100*tune.Income.BasePerSec[0]
	if math.Abs(next.Seeds-want) > 1e-6 {
		t.Fatalf("seeds=%v want %v", next.Seeds, want)
	}
	if events == 0 {
		t.Fatalf("expected an offline progress event")
	}
	if next.LastSaveTime != doc.LastSaveTime+100_000 {
		t.Fatalf("save time %d, want %d", next.LastSaveTime, doc.LastSaveTime+100_000)
	}

	same, _, err := backfill(doc, tune, cats, 10*time.Second)
	if err != nil || same.Seeds != doc.Seeds {
		t.Fatalf("short interval should be skipped: seeds=%v err=%v", same.Seeds, err)
	}
	if _, _, err := backfill(doc, tune, cats, -time.Second); err == nil {
		t.Fatalf("negative duration accepted")
	}
}

func TestBackfillCmdWritesFile(t *testing.T) {
	doc, _, _ := workingSave(t)
	in := filepath.Join(t.TempDir(), "in.snap.zst")
	if err := snapshot.WriteFile(in, doc); err != nil {
		t.Fatalf("write: %v", err)
	}
	outPath := filepath.Join(t.TempDir(), "out.snap.zst")
	var buf bytes.Buffer
	if err := backfillCmd([]string{"-save", in, "-hours", "0.01", "-out", outPath}, &buf); err != nil {
		t.Fatalf("backfillCmd: %v", err)
	}
	if !strings.Contains(buf.String(), "wrote "+outPath) {
		t.Fatalf("unexpected output: %s", buf.String())
	}

	buf.Reset()
	if err := exportCmd([]string{"-save", outPath}, &buf); err != nil {
		t.Fatalf("exportCmd: %v", err)
	}
	rows, err := export.ReadRoster(&buf)
	if err != nil || len(rows) != 1 || !strings.HasPrefix(rows[0].Location, "forager(") {
		t.Fatalf("roster=%+v err=%v", rows, err)
	}
}

func TestInspectSummary(t *testing.T) {
	doc, tune, cats := workingSave(t)
	var buf bytes.Buffer
	if err := inspect(&buf, doc, tune, cats); err != nil {
		t.Fatalf("inspect: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"specimens:  1", "forager", "biome " + cats.FirstBiome(), "repairs:    0"} {
		if !strings.Contains(out, want) {
			t.Fatalf("inspect output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "anomaly:") {
		t.Fatalf("clean save reported anomalies:\n%s", out)
	}
}

func TestDistinctionStats(t *testing.T) {
	tune := tuning.Defaults()
	c := tune.Vitality.Capacity[0]
	doc := snapshot.SaveV1{Specimens: []snapshot.SpecimenV1{
		{ID: "a", Distinction: 1, Vitality: c, IsMature: true, MaturityProgress: 100},
		{ID: "b", Distinction: 1, Vitality: c / 2, MaturityProgress: 50},
		{ID: "c", Distinction: 3, Vitality: 0},
	}}
	rows := distinctionStats(doc, tune)
	if len(rows) != 2 || rows[0].Distinction != 1 || rows[1].Distinction != 3 {
		t.Fatalf("rows=%+v", rows)
	}
	r := rows[0]
	if r.Count != 2 || r.Mature != 1 || math.Abs(r.VitalityMean-75) > 1e-9 || math.Abs(r.MaturityMean-75) > 1e-9 {
		t.Fatalf("tier 1 stats: %+v", r)
	}
	if rows[1].VitalitySD != 0 || rows[1].VitalityP50 != 0 {
		t.Fatalf("single-sample tier: %+v", rows[1])
	}
}

func TestSpeciesSuggestions(t *testing.T) {
	cats, err := catalogs.Default()
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	name := cats.Species.Defs[0].Name
	var buf bytes.Buffer
	if err := species(&buf, cats, strings.ToLower(name), 3); err != nil {
		t.Fatalf("species: %v", err)
	}
	if !strings.HasPrefix(buf.String(), name+"\t") {
		t.Fatalf("expected exact match first, got:\n%s", buf.String())
	}
	if err := species(&buf, cats, "zzzzzzzzzzzzqqq", 3); err == nil {
		t.Fatalf("expected no suggestions")
	}
}

func TestAdminRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/admin/v1/save" && r.Method == http.MethodPost {
			_, _ = rw.Write([]byte(`{"ok":true}`))
			return
		}
		http.Error(rw, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	if err := saveCmd([]string{"-url", srv.URL}, &buf); err != nil {
		t.Fatalf("saveCmd: %v", err)
	}
	if !strings.Contains(buf.String(), `"ok":true`) {
		t.Fatalf("unexpected body %q", buf.String())
	}
	if err := stateCmd([]string{"-url", srv.URL}, &buf); err == nil {
		t.Fatalf("expected error status to surface")
	}
}

func TestArchivesCmdEmpty(t *testing.T) {
	var out bytes.Buffer
	if err := archivesCmd([]string{"-data", t.TempDir()}, &out); err != nil {
		t.Fatalf("archives: %v", err)
	}
	if !strings.Contains(out.String(), "no archived runs") {
		t.Fatalf("output=%q", out.String())
	}
}
