package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"sanctuary.game/internal/persistence/archive"
	"sanctuary.game/internal/persistence/indexdb"
	persistlog "sanctuary.game/internal/persistence/log"
)

// dbCmd queries the sqlite index: "slots" or "events".
func dbCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (default: <data>/index/sanctuary.sqlite)")
	limit := fs.Int("limit", 20, "result limit")
	typ := fs.String("type", "", "event type filter")
	_ = fs.Parse(args)

	q := "slots"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}
	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "index", "sanctuary.sqlite")
	}
	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		return err
	}
	defer idx.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	switch q {
	case "slots":
		slots, err := idx.Slots(ctx)
		if err != nil {
			return err
		}
		for _, s := range slots {
			fmt.Fprintf(out, "%s\tsaved_at=%d seeds=%.2f specimens=%d prestige=%d\n", s.Slot, s.SavedAtMs, s.Seeds, s.Specimens, s.PrestigeCount)
		}
	case "events":
		rows, err := idx.RecentEvents(ctx, strings.ToUpper(*typ), *limit)
		if err != nil {
			return err
		}
		for _, r := range rows {
			fmt.Fprintf(out, "%d\t%d\t%s\t%s\n", r.Seq, r.AtMs, r.Type, r.Raw)
		}
	default:
		return fmt.Errorf("unknown query %q (want slots|events)", q)
	}
	return nil
}

// eventsCmd prints an event log file written by the server.
func eventsCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	typ := fs.String("type", "", "event type filter")
	_ = fs.Parse(args)
	if fs.NArg() == 0 {
		return fmt.Errorf("missing events-*.jsonl.zst path")
	}
	for _, p := range fs.Args() {
		evs, err := persistlog.ReadEvents(p)
		if err != nil {
			return err
		}
		for _, ev := range evs {
			if *typ != "" && !strings.EqualFold(ev.Type, *typ) {
				continue
			}
			fmt.Fprintf(out, "%d\t%s\t%v\n", ev.AtMs, ev.Type, ev.Data)
		}
	}
	return nil
}

// archivesCmd lists the runs the server archived at each prestige.
func archivesCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("archives", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	metas, err := archive.ReadMeta(*dataDir)
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		fmt.Fprintln(out, "no archived runs")
		return nil
	}
	for _, m := range metas {
		fmt.Fprintf(out, "prestige %d\tsaved_at=%d earned=%.0f specimens=%d crystals=%s\t%s\n",
			m.Prestige, m.SavedAtMs, m.TotalSeedsEarned, m.Specimens, strings.Join(m.CrystalsEarned, ","), m.Snapshot)
	}
	return nil
}
