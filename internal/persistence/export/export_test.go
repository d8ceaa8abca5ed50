package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sanctuary.game/internal/persistence/snapshot"
)

func sampleSave() snapshot.SaveV1 {
	return snapshot.SaveV1{
		Seeds:            42.5,
		TotalSeedsEarned: 900,
		Crystals:         []string{"forest", "wetlands"},
		PrestigeCount:    2,
		Specimens: []snapshot.SpecimenV1{
			{ID: "B000002", Species: "Heron", Distinction: 3, Biome: "wetlands", Traits: []string{"Swift", "Melodic"}, Vitality: 120, IsMature: true, MaturityProgress: 100, Location: snapshot.LocationV1{Kind: "FORAGER", Biome: "wetlands", Slot: 1}},
			{ID: "B000001", Species: "Robin", Distinction: 1, Biome: "forest", Traits: []string{"Hardy"}, Vitality: 50, MaturityProgress: 40, Location: snapshot.LocationV1{Kind: "COLLECTION"}},
		},
		CataloguedSpecies: []string{"Robin", "Heron"},
		LastSaveTime:      5000,
	}
}

func TestRosterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRoster(&buf, sampleSave()); err != nil {
		t.Fatalf("WriteRoster: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "id,species,distinction,") {
		t.Fatalf("unexpected header: %q", buf.String())
	}
	rows, err := ReadRoster(&buf)
	if err != nil {
		t.Fatalf("ReadRoster: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("want 2 rows, got %d", len(rows))
	}
	if rows[0].ID != "B000001" || rows[0].Location != "collection" || rows[0].Mature {
		t.Fatalf("row 0: %+v", rows[0])
	}
	if rows[1].Traits != "Swift|Melodic" || rows[1].Location != "forager(wetlands,1)" || rows[1].Distinction != 3 {
		t.Fatalf("row 1: %+v", rows[1])
	}
}

func TestEmptyRosterHasHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRoster(&buf, snapshot.SaveV1{}); err != nil {
		t.Fatalf("WriteRoster: %v", err)
	}
	rows, err := ReadRoster(&buf)
	if err != nil || len(rows) != 0 {
		t.Fatalf("rows=%v err=%v", rows, err)
	}
}

func TestLedgerSortedBySaveTime(t *testing.T) {
	a := sampleSave()
	b := sampleSave()
	b.LastSaveTime = 1000
	b.Seeds = 3
	var buf bytes.Buffer
	if err := WriteLedger(&buf, []snapshot.SaveV1{a, b}); err != nil {
		t.Fatalf("WriteLedger: %v", err)
	}
	rows, err := ReadLedger(&buf)
	if err != nil {
		t.Fatalf("ReadLedger: %v", err)
	}
	if len(rows) != 2 || rows[0].SavedAtMs != 1000 || rows[1].Crystals != "forest|wetlands" {
		t.Fatalf("unexpected ledger: %+v", rows)
	}
}

func TestLedgerLogWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger", "ledger.csv")
	for i := 0; i < 2; i++ {
		l, err := OpenLedgerLog(path)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		s := sampleSave()
		s.LastSaveTime = int64(1000 * (i + 1))
		if err := l.Append(s); err != nil {
			t.Fatalf("append: %v", err)
		}
		if err := l.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n := strings.Count(string(raw), "saved_at_ms"); n != 1 {
		t.Fatalf("header count=%d\n%s", n, raw)
	}
	rows, err := ReadLedger(bytes.NewReader(raw))
	if err != nil || len(rows) != 2 {
		t.Fatalf("rows=%d err=%v", len(rows), err)
	}
}

func TestOpenLedgerLogDisabled(t *testing.T) {
	l, err := OpenLedgerLog("")
	if err != nil || l != nil {
		t.Fatalf("expected disabled log, got %v %v", l, err)
	}
	if err := l.Append(sampleSave()); err != nil {
		t.Fatalf("nil append: %v", err)
	}
}
