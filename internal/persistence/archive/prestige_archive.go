package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sanctuary.game/internal/persistence/snapshot"
)

type RunArchiveMeta struct {
	Prestige         int      `json:"prestige"`
	SavedAtMs        int64    `json:"saved_at_ms"`
	Seeds            float64  `json:"seeds"`
	TotalSeedsEarned float64  `json:"total_seeds_earned"`
	Specimens        int      `json:"specimens"`
	CrystalsEarned   []string `json:"crystals_earned"`
	Snapshot         string   `json:"snapshot"`
	CreatedAt        string   `json:"created_at"`
}

// ArchiveRun keeps the last save of a finished run. When cur shows a prestige that prev
// does not, prev is written to `dataDir/archives/prestige_<NNN>/` next to a meta.json.
// It returns (prestige, archivedPath, archived=true) when a run boundary was crossed.
func ArchiveRun(dataDir string, prev, cur snapshot.SaveV1) (prestige int, archivedPath string, archived bool, err error) {
	if cur.PrestigeCount <= prev.PrestigeCount {
		return 0, "", false, nil
	}
	prestige = cur.PrestigeCount

	dir := filepath.Join(dataDir, "archives", fmt.Sprintf("prestige_%03d", prestige))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, "", false, err
	}
	dst := filepath.Join(dir, fmt.Sprintf("%d.save.zst", prev.LastSaveTime))
	if err := snapshot.WriteFile(dst, prev); err != nil {
		return 0, "", false, err
	}

	meta := RunArchiveMeta{
		Prestige:         prestige,
		SavedAtMs:        prev.LastSaveTime,
		Seeds:            prev.Seeds,
		TotalSeedsEarned: prev.TotalSeedsEarned,
		Specimens:        len(prev.Specimens),
		CrystalsEarned:   newCrystals(prev.Crystals, cur.Crystals),
		Snapshot:         filepath.Base(dst),
		CreatedAt:        time.Now().UTC().Format(time.RFC3339Nano),
	}
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(filepath.Join(dir, "meta.json"), b, 0o644)
	}
	return prestige, dst, true, nil
}

// ReadMeta lists archived runs in prestige order.
func ReadMeta(dataDir string) ([]RunArchiveMeta, error) {
	paths, err := filepath.Glob(filepath.Join(dataDir, "archives", "prestige_*", "meta.json"))
	if err != nil {
		return nil, err
	}
	out := make([]RunArchiveMeta, 0, len(paths))
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		var m RunArchiveMeta
		if err := json.Unmarshal(b, &m); err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		out = append(out, m)
	}
	return out, nil
}

func newCrystals(before, after []string) []string {
	seen := make(map[string]bool, len(before))
	for _, c := range before {
		seen[c] = true
	}
	out := []string{}
	for _, c := range after {
		if !seen[c] {
			out = append(out, c)
		}
	}
	return out
}
