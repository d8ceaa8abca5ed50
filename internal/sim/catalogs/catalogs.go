package catalogs

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

//go:embed defaults/*.json
var defaultFS embed.FS

type Catalogs struct {
	Biomes      BiomeCatalog
	Species     SpeciesCatalog
	Traits      TraitCatalog
	Legendaries LegendaryCatalog
}

type BiomeCatalog struct {
	Order  []string
	ByID   map[string]BiomeDef
	Digest string
}

type BiomeDef struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Order            int       `json:"order"`
	UnlockCost       float64   `json:"unlock_cost"`
	ForagerSlotCosts []float64 `json:"forager_slot_costs"`
	SurveyCost       float64   `json:"survey_cost"`
	SurveyRates      []float64 `json:"survey_rates"`
	MaxTier          int       `json:"max_tier"`
}

type SpeciesCatalog struct {
	Defs   []SpeciesDef
	ByName map[string]SpeciesDef
	Digest string
}

type SpeciesDef struct {
	Name  string `json:"name"`
	Biome string `json:"biome"`
	Tier  int    `json:"tier"`
}

type TraitCatalog struct {
	IDs    []string
	Defs   map[string]TraitDef
	Digest string
}

type TraitDef struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

type LegendaryCatalog struct {
	ByBiome map[string]LegendaryDef
	Digest  string
}

type LegendaryDef struct {
	Biome   string   `json:"biome"`
	Species string   `json:"species"`
	Traits  []string `json:"traits"`
}

// ForagerSlots is the fixed number of forager slots per biome.
const ForagerSlots = 3

// Default returns the catalogs compiled into the binary.
func Default() (*Catalogs, error) {
	sub, err := fs.Sub(defaultFS, "defaults")
	if err != nil {
		return nil, err
	}
	return LoadFS(sub)
}

// Load reads catalogs from configDir. An empty configDir selects the embedded defaults.
func Load(configDir string) (*Catalogs, error) {
	if strings.TrimSpace(configDir) == "" {
		return Default()
	}
	return LoadFS(os.DirFS(configDir))
}

func LoadFS(fsys fs.FS) (*Catalogs, error) {
	var c Catalogs
	if err := loadBiomes(fsys, &c.Biomes); err != nil {
		return nil, err
	}
	if err := loadTraits(fsys, &c.Traits); err != nil {
		return nil, err
	}
	if err := loadSpecies(fsys, &c.Species, &c.Biomes); err != nil {
		return nil, err
	}
	if err := loadLegendaries(fsys, &c.Legendaries, &c.Biomes, &c.Traits); err != nil {
		return nil, err
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadBiomes(fsys fs.FS, out *BiomeCatalog) error {
	raw, err := fs.ReadFile(fsys, "biomes.json")
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []BiomeDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("biomes.json: %w", err)
	}
	if len(defs) == 0 {
		return fmt.Errorf("biomes.json: no biomes")
	}
	out.ByID = map[string]BiomeDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("biomes.json: empty id")
		}
		if _, dup := out.ByID[d.ID]; dup {
			return fmt.Errorf("biomes.json: duplicate id %s", d.ID)
		}
		if len(d.ForagerSlotCosts) != ForagerSlots || len(d.SurveyRates) != ForagerSlots {
			return fmt.Errorf("biomes.json: %s: want %d forager slot costs and survey rates", d.ID, ForagerSlots)
		}
		if d.SurveyCost <= 0 {
			return fmt.Errorf("biomes.json: %s: survey_cost must be positive", d.ID)
		}
		if d.MaxTier < 1 || d.MaxTier > 5 {
			return fmt.Errorf("biomes.json: %s: max_tier out of range", d.ID)
		}
		out.ByID[d.ID] = d
	}
	sort.SliceStable(defs, func(i, j int) bool { return defs[i].Order < defs[j].Order })
	out.Order = make([]string, 0, len(defs))
	for _, d := range defs {
		out.Order = append(out.Order, d.ID)
	}
	return nil
}

func loadTraits(fsys fs.FS, out *TraitCatalog) error {
	raw, err := fs.ReadFile(fsys, "traits.json")
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []TraitDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("traits.json: %w", err)
	}
	out.Defs = map[string]TraitDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("traits.json: empty id")
		}
		out.Defs[d.ID] = d
	}
	// Trait catalogue order is the file order; genetics falls back to it deterministically.
	out.IDs = make([]string, 0, len(defs))
	for _, d := range defs {
		out.IDs = append(out.IDs, d.ID)
	}
	return nil
}

func loadSpecies(fsys fs.FS, out *SpeciesCatalog, biomes *BiomeCatalog) error {
	raw, err := fs.ReadFile(fsys, "species.json")
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []SpeciesDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("species.json: %w", err)
	}
	out.ByName = map[string]SpeciesDef{}
	for _, d := range defs {
		if d.Name == "" {
			return fmt.Errorf("species.json: empty name")
		}
		if _, ok := biomes.ByID[d.Biome]; !ok {
			return fmt.Errorf("species.json: %s: unknown biome %q", d.Name, d.Biome)
		}
		if d.Tier < 1 || d.Tier > 5 {
			return fmt.Errorf("species.json: %s: tier out of range", d.Name)
		}
		out.ByName[d.Name] = d
	}
	out.Defs = defs
	return nil
}

func loadLegendaries(fsys fs.FS, out *LegendaryCatalog, biomes *BiomeCatalog, traits *TraitCatalog) error {
	out.ByBiome = map[string]LegendaryDef{}
	raw, err := fs.ReadFile(fsys, "legendaries.json")
	if err != nil {
		// A catalog without legendaries simply never hatches one.
		if errors.Is(err, fs.ErrNotExist) {
			out.Digest = sha256Hex(nil)
			return nil
		}
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []LegendaryDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("legendaries.json: %w", err)
	}
	for _, d := range defs {
		if _, ok := biomes.ByID[d.Biome]; !ok {
			return fmt.Errorf("legendaries.json: unknown biome %q", d.Biome)
		}
		for _, tr := range d.Traits {
			if _, ok := traits.Defs[tr]; !ok {
				return fmt.Errorf("legendaries.json: %s: unknown trait %q", d.Species, tr)
			}
		}
		out.ByBiome[d.Biome] = d
	}
	return nil
}

// SpeciesFor lists the species native to biome at tier, in catalog order.
func (c *Catalogs) SpeciesFor(biome string, tier int) []SpeciesDef {
	var out []SpeciesDef
	for _, d := range c.Species.Defs {
		if d.Biome == biome && d.Tier == tier {
			out = append(out, d)
		}
	}
	return out
}

// FirstBiome is the starting biome (lowest order).
func (c *Catalogs) FirstBiome() string {
	return c.Biomes.Order[0]
}

// FinalBiome is the last biome in unlock order.
func (c *Catalogs) FinalBiome() string {
	return c.Biomes.Order[len(c.Biomes.Order)-1]
}

// BiomeIndex returns the unlock-order position of a biome, or -1.
func (c *Catalogs) BiomeIndex(id string) int {
	for i, b := range c.Biomes.Order {
		if b == id {
			return i
		}
	}
	return -1
}

// SuggestSpecies returns up to max species names close to query (case-insensitive),
// best match first. Exact matches always come first.
func (c *Catalogs) SuggestSpecies(query string, max int) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || max <= 0 {
		return nil
	}
	type cand struct {
		name string
		dist int
	}
	var cands []cand
	for _, d := range c.Species.Defs {
		name := strings.ToLower(d.Name)
		dist := levenshtein.ComputeDistance(q, name)
		if strings.Contains(name, q) {
			dist = 0
			if name != q {
				dist = 1
			}
		}
		if dist > suggestLimit(len(q)) {
			continue
		}
		cands = append(cands, cand{name: d.Name, dist: dist})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		return cands[i].name < cands[j].name
	})
	if len(cands) > max {
		cands = cands[:max]
	}
	out := make([]string, 0, len(cands))
	for _, cd := range cands {
		out = append(out, cd.name)
	}
	return out
}

func suggestLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return length / 3
	}
}
