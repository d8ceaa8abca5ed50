// Package export writes CSV views of a save: the specimen roster and ledger history.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"

	"sanctuary.game/internal/persistence/snapshot"
	"sanctuary.game/internal/sim/world/kernel/model"
)

// RosterRow is one specimen.
type RosterRow struct {
	ID          string  `csv:"id"`
	Species     string  `csv:"species"`
	Distinction int     `csv:"distinction"`
	Biome       string  `csv:"biome"`
	Traits      string  `csv:"traits"`
	Vitality    float64 `csv:"vitality"`
	Mature      bool    `csv:"mature"`
	Maturity    float64 `csv:"maturity_progress"`
	Location    string  `csv:"location"`
	Legendary   bool    `csv:"legendary"`
	BornAtMs    int64   `csv:"born_at_ms"`
}

// LedgerRow summarises the ledger at one save.
type LedgerRow struct {
	SavedAtMs        int64   `csv:"saved_at_ms"`
	Seeds            float64 `csv:"seeds"`
	TotalSeedsEarned float64 `csv:"total_seeds_earned"`
	PrestigeCount    int     `csv:"prestige_count"`
	Crystals         string  `csv:"crystals"`
	Specimens        int     `csv:"specimens"`
	Catalogued       int     `csv:"catalogued_species"`
}

func locationString(l snapshot.LocationV1) string {
	k, ok := model.ParseLocationKind(l.Kind)
	if !ok {
		return strings.ToLower(l.Kind)
	}
	return model.Location{Kind: k, Biome: l.Biome, Slot: l.Slot}.Normalize().String()
}

// Roster lists specimens ordered by id.
func Roster(s snapshot.SaveV1) []RosterRow {
	rows := make([]RosterRow, 0, len(s.Specimens))
	for _, sp := range s.Specimens {
		rows = append(rows, RosterRow{
			ID:          sp.ID,
			Species:     sp.Species,
			Distinction: sp.Distinction,
			Biome:       sp.Biome,
			Traits:      strings.Join(sp.Traits, "|"),
			Vitality:    sp.Vitality,
			Mature:      sp.IsMature,
			Maturity:    sp.MaturityProgress,
			Location:    locationString(sp.Location),
			Legendary:   sp.IsLegendary,
			BornAtMs:    sp.BornAt,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows
}

func Ledger(s snapshot.SaveV1) LedgerRow {
	return LedgerRow{
		SavedAtMs:        s.LastSaveTime,
		Seeds:            s.Seeds,
		TotalSeedsEarned: s.TotalSeedsEarned,
		PrestigeCount:    s.PrestigeCount,
		Crystals:         strings.Join(s.Crystals, "|"),
		Specimens:        len(s.Specimens),
		Catalogued:       len(s.CataloguedSpecies),
	}
}

// WriteRoster writes the roster of s with a header row.
func WriteRoster(w io.Writer, s snapshot.SaveV1) error {
	rows := Roster(s)
	if len(rows) == 0 {
		// gocsv derives the header from the first element; an empty roster still gets one.
		_, err := io.WriteString(w, "id,species,distinction,biome,traits,vitality,mature,maturity_progress,location,legendary,born_at_ms\n")
		return err
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("writing roster: %w", err)
	}
	return nil
}

// WriteLedger writes one ledger row per save, oldest first.
func WriteLedger(w io.Writer, saves []snapshot.SaveV1) error {
	rows := make([]LedgerRow, 0, len(saves))
	for _, s := range saves {
		rows = append(rows, Ledger(s))
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].SavedAtMs < rows[j].SavedAtMs })
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("writing ledger: %w", err)
	}
	return nil
}

func ReadRoster(r io.Reader) ([]RosterRow, error) {
	var rows []RosterRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("reading roster: %w", err)
	}
	return rows, nil
}

func ReadLedger(r io.Reader) ([]LedgerRow, error) {
	var rows []LedgerRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("reading ledger: %w", err)
	}
	return rows, nil
}

// LedgerLog appends a ledger row per save to a CSV file, writing the header once.
type LedgerLog struct {
	f             *os.File
	headerWritten bool
}

// OpenLedgerLog opens path for appending. An empty path disables the log (nil, nil).
func OpenLedgerLog(path string) (*LedgerLog, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &LedgerLog{f: f, headerWritten: st.Size() > 0}, nil
}

func (l *LedgerLog) Append(s snapshot.SaveV1) error {
	if l == nil {
		return nil
	}
	records := []LedgerRow{Ledger(s)}
	if !l.headerWritten {
		if err := gocsv.Marshal(records, l.f); err != nil {
			return fmt.Errorf("writing ledger: %w", err)
		}
		l.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, l.f); err != nil {
		return fmt.Errorf("writing ledger: %w", err)
	}
	return nil
}

func (l *LedgerLog) Close() error {
	if l == nil {
		return nil
	}
	return l.f.Close()
}
