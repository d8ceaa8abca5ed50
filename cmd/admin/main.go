package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"sanctuary.game/internal/persistence/export"
	"sanctuary.game/internal/persistence/indexdb"
	"sanctuary.game/internal/persistence/migrate"
	"sanctuary.game/internal/persistence/snapshot"
	"sanctuary.game/internal/persistence/store"
	"sanctuary.game/internal/sim/catalogs"
	"sanctuary.game/internal/sim/clock"
	"sanctuary.game/internal/sim/rng"
	"sanctuary.game/internal/sim/tuning"
	"sanctuary.game/internal/sim/world"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "inspect":
		err = inspectCmd(args, os.Stdout)
	case "export":
		err = exportCmd(args, os.Stdout)
	case "stats":
		err = statsCmd(args, os.Stdout)
	case "species":
		err = speciesCmd(args, os.Stdout)
	case "backfill":
		err = backfillCmd(args, os.Stdout)
	case "db":
		err = dbCmd(args, os.Stdout)
	case "events":
		err = eventsCmd(args, os.Stdout)
	case "archives":
		err = archivesCmd(args, os.Stdout)
	case "state":
		err = stateCmd(args, os.Stdout)
	case "save":
		err = saveCmd(args, os.Stdout)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, cmd+":", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: admin <inspect|export|stats|species|backfill|db|events|archives|state|save> [flags]")
}

// source selects a save document: an explicit file, or the newest save of a store.
type source struct {
	savePath   *string
	dataDir    *string
	storeKind  *string
	slot       *string
	configDir  *string
	tuningPath *string
}

func sourceFlags(fs *flag.FlagSet) *source {
	return &source{
		savePath:   fs.String("save", "", "snapshot file (default: newest save in the store)"),
		dataDir:    fs.String("data", "./data", "runtime data directory"),
		storeKind:  fs.String("store", "file", "store to read when -save is empty: file|sqlite"),
		slot:       fs.String("slot", "default", "sqlite save slot"),
		configDir:  fs.String("configs", "", "catalog directory (default: embedded catalogs)"),
		tuningPath: fs.String("tuning", "", "tuning.yaml (default: built-in)"),
	}
}

func (s *source) config() (tuning.Tuning, *catalogs.Catalogs, error) {
	tune := tuning.Defaults()
	if p := strings.TrimSpace(*s.tuningPath); p != "" {
		t, err := tuning.Load(p)
		if err != nil {
			return tune, nil, err
		}
		tune = t
	}
	cats, err := catalogs.Load(*s.configDir)
	if err != nil {
		return tune, nil, err
	}
	return tune, cats, nil
}

func (s *source) load(tune tuning.Tuning) (snapshot.SaveV1, error) {
	opt := migrate.Options{Capacity: tune.Vitality.Capacity}
	if p := strings.TrimSpace(*s.savePath); p != "" {
		return store.LoadFile(p, opt)
	}
	var st store.Store
	switch *s.storeKind {
	case "file":
		st = store.NewFileStore(filepath.Join(*s.dataDir, "saves"), opt)
	case "sqlite":
		idx, err := indexdb.OpenSQLite(filepath.Join(*s.dataDir, "index", "sanctuary.sqlite"))
		if err != nil {
			return snapshot.SaveV1{}, err
		}
		defer idx.Close()
		st = idx.Slot(*s.slot, opt)
	default:
		return snapshot.SaveV1{}, fmt.Errorf("unsupported store: %s", *s.storeKind)
	}
	doc, err := st.Load()
	if err != nil {
		return snapshot.SaveV1{}, err
	}
	if doc == nil {
		return snapshot.SaveV1{}, fmt.Errorf("no save found in %s store", *s.storeKind)
	}
	return *doc, nil
}

func (s *source) open() (snapshot.SaveV1, tuning.Tuning, *catalogs.Catalogs, error) {
	tune, cats, err := s.config()
	if err != nil {
		return snapshot.SaveV1{}, tune, nil, err
	}
	doc, err := s.load(tune)
	return doc, tune, cats, err
}

// importWorld loads doc into a world whose clock sits at now.
func importWorld(doc snapshot.SaveV1, tune tuning.Tuning, cats *catalogs.Catalogs, now time.Time) (*world.World, error) {
	w, err := world.New(world.WorldConfig{Tuning: tune, Catalogs: cats, Clock: clock.NewFake(now), RNG: rng.New(1)})
	if err != nil {
		return nil, err
	}
	if err := w.ImportSave(doc); err != nil {
		return nil, err
	}
	return w, nil
}

func inspectCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	src := sourceFlags(fs)
	_ = fs.Parse(args)

	doc, tune, cats, err := src.open()
	if err != nil {
		return err
	}
	return inspect(out, doc, tune, cats)
}

func inspect(out io.Writer, doc snapshot.SaveV1, tune tuning.Tuning, cats *catalogs.Catalogs) error {
	w, err := importWorld(doc, tune, cats, time.UnixMilli(doc.LastSaveTime))
	if err != nil {
		return err
	}
	v := w.View()

	fmt.Fprintf(out, "saved_at:   %s (%d)\n", time.UnixMilli(doc.LastSaveTime).UTC().Format(time.RFC3339), doc.LastSaveTime)
	fmt.Fprintf(out, "seeds:      %.2f (earned %.2f, income %.2f/s)\n", v.Seeds, v.TotalSeedsEarned, v.IncomePerSec)
	fmt.Fprintf(out, "prestige:   %d crystals=%s\n", v.PrestigeCount, strings.Join(v.Crystals, ","))
	fmt.Fprintf(out, "specimens:  %d\n", len(v.Specimens))

	byLoc := map[string]int{}
	for _, s := range doc.Specimens {
		byLoc[s.Location.Kind]++
	}
	kinds := make([]string, 0, len(byLoc))
	for k := range byLoc {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(out, "  %-10s %d\n", strings.ToLower(k), byLoc[k])
	}

	for _, b := range v.Biomes {
		if !b.Unlocked {
			fmt.Fprintf(out, "biome %-10s locked\n", b.ID)
			continue
		}
		open := 0
		for _, f := range b.Foragers {
			if f.Unlocked {
				open++
			}
		}
		fmt.Fprintf(out, "biome %-10s foragers=%d/%d survey=%.1f/%.0f surveyor=%s\n", b.ID, open, len(b.Foragers), b.SurveyProgress, b.SurveyCost, orDash(b.Surveyor))
	}
	for i, p := range v.Breeding {
		if !p.Unlocked {
			continue
		}
		if p.Active {
			fmt.Fprintf(out, "breeding %d: %s x %s %.1f%%\n", i, p.Parent1, p.Parent2, p.Progress)
		} else {
			fmt.Fprintf(out, "breeding %d: idle\n", i)
		}
	}
	fmt.Fprintf(out, "catalogued: %d/%d species, %d legendaries\n", len(v.CataloguedSpecies), len(cats.Species.Defs), len(v.LegendariesAcquired))
	if len(v.Milestones) > 0 {
		fmt.Fprintf(out, "milestones: %s\n", strings.Join(v.Milestones, ","))
	}
	for d := 1; d <= tuning.Tiers; d++ {
		if order := w.CullOrder(d); len(order) > 0 {
			n := min(len(order), 3)
			fmt.Fprintf(out, "cull next t%d: %s\n", d, strings.Join(order[:n], ","))
		}
	}
	fmt.Fprintf(out, "repairs:    %d\n", w.Anomalies())
	for _, d := range w.CheckIntegrity() {
		fmt.Fprintf(out, "anomaly: %s\n", d)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func exportCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	src := sourceFlags(fs)
	what := fs.String("what", "roster", "roster|ledger")
	outPath := fs.String("out", "", "output CSV (default: stdout)")
	_ = fs.Parse(args)

	w := out
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch *what {
	case "roster":
		doc, _, _, err := src.open()
		if err != nil {
			return err
		}
		return export.WriteRoster(w, doc)
	case "ledger":
		saves, err := ledgerHistory(src)
		if err != nil {
			return err
		}
		return export.WriteLedger(w, saves)
	default:
		return fmt.Errorf("unknown export %q", *what)
	}
}

// ledgerHistory returns one document per retained snapshot file, or the single
// document named by -save.
func ledgerHistory(src *source) ([]snapshot.SaveV1, error) {
	tune, _, err := src.config()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(*src.savePath) != "" || *src.storeKind != "file" {
		doc, err := src.load(tune)
		if err != nil {
			return nil, err
		}
		return []snapshot.SaveV1{doc}, nil
	}
	opt := migrate.Options{Capacity: tune.Vitality.Capacity}
	paths, err := filepath.Glob(filepath.Join(*src.dataDir, "saves", "save-*.snap.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	var out []snapshot.SaveV1
	for _, p := range paths {
		doc, err := store.LoadFile(p, opt)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skip %s: %v\n", filepath.Base(p), err)
			continue
		}
		out = append(out, doc)
	}
	return out, nil
}

func speciesCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("species", flag.ExitOnError)
	configDir := fs.String("configs", "", "catalog directory (default: embedded catalogs)")
	n := fs.Int("n", 5, "max suggestions")
	_ = fs.Parse(args)
	if fs.NArg() == 0 {
		return fmt.Errorf("missing species name")
	}
	cats, err := catalogs.Load(*configDir)
	if err != nil {
		return err
	}
	return species(out, cats, strings.Join(fs.Args(), " "), *n)
}

func species(out io.Writer, cats *catalogs.Catalogs, query string, n int) error {
	names := cats.SuggestSpecies(query, n)
	if len(names) == 0 {
		return fmt.Errorf("no species close to %q", query)
	}
	for _, name := range names {
		d := cats.Species.ByName[name]
		legendary := ""
		if l, ok := cats.Legendaries.ByBiome[d.Biome]; ok && l.Species == d.Name {
			legendary = " legendary"
		}
		fmt.Fprintf(out, "%s\tbiome=%s tier=%d%s\n", d.Name, d.Biome, d.Tier, legendary)
	}
	return nil
}

func backfillCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("backfill", flag.ExitOnError)
	src := sourceFlags(fs)
	hours := fs.Float64("hours", 1, "offline hours to apply")
	outPath := fs.String("out", "", "output snapshot (default: overwrite -save, or a new save in the file store)")
	_ = fs.Parse(args)

	doc, tune, cats, err := src.open()
	if err != nil {
		return err
	}
	next, events, err := backfill(doc, tune, cats, time.Duration(*hours*float64(time.Hour)))
	if err != nil {
		return err
	}

	dst := strings.TrimSpace(*outPath)
	switch {
	case dst != "":
		err = snapshot.WriteFile(dst, next)
	case strings.TrimSpace(*src.savePath) != "":
		dst = *src.savePath
		err = snapshot.WriteFile(dst, next)
	default:
		dst = filepath.Join(*src.dataDir, "saves")
		err = store.NewFileStore(dst, migrate.Options{Capacity: tune.Vitality.Capacity}).Save(next)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "applied %.2fh: seeds %.2f -> %.2f, %d events, wrote %s\n", *hours, doc.Seeds, next.Seeds, events, dst)
	return nil
}

// backfill replays d of offline time on doc, as if the game were reopened d after its
// last save.
func backfill(doc snapshot.SaveV1, tune tuning.Tuning, cats *catalogs.Catalogs, d time.Duration) (snapshot.SaveV1, int, error) {
	if d < 0 {
		return snapshot.SaveV1{}, 0, fmt.Errorf("negative duration")
	}
	w, err := importWorld(doc, tune, cats, time.UnixMilli(doc.LastSaveTime).Add(d))
	if err != nil {
		return snapshot.SaveV1{}, 0, err
	}
	r := w.ResumeOffline()
	if !r.OK() {
		return snapshot.SaveV1{}, 0, fmt.Errorf("%s", r.Error())
	}
	return w.ExportSave(), len(r.Events), nil
}
