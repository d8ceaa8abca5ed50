package tuning

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tiers is the number of distinction levels. Every per-tier table has exactly this many entries.
const Tiers = 5

type Tuning struct {
	SaveVersion string `yaml:"save_version"`

	TickRateHz       int `yaml:"tick_rate_hz"`
	AutosaveEverySec int `yaml:"autosave_every_sec"`
	StatePushEveryMs int `yaml:"state_push_every_ms"`

	StartingSeeds float64 `yaml:"starting_seeds"`
	RarityCap     int     `yaml:"rarity_cap"`

	Vitality   Vitality   `yaml:"vitality"`
	Income     Income     `yaml:"income"`
	Maturation Maturation `yaml:"maturation"`
	Breeding   Breeding   `yaml:"breeding"`
	Offline    Offline    `yaml:"offline"`
	Taps       Taps       `yaml:"taps"`
	Unlocks    Unlocks    `yaml:"unlocks"`
	Prestige   Prestige   `yaml:"prestige"`
}

type Vitality struct {
	Capacity          []float64 `yaml:"capacity"`
	DrainPerSec       []float64 `yaml:"drain_per_sec"`
	RestoreMultiplier []float64 `yaml:"restore_multiplier"`
	NominalRestoreSec float64   `yaml:"nominal_restore_sec"`
}

type Income struct {
	BasePerSec []float64 `yaml:"base_per_sec"`
}

type Maturation struct {
	MatureSec []float64 `yaml:"mature_sec"`
}

type Breeding struct {
	BaseDurationSec      []float64 `yaml:"base_duration_sec"`
	DurationTrait        string    `yaml:"duration_trait"`
	DurationMultiplier   float64   `yaml:"duration_multiplier"`
	LegendaryBaseChance  float64   `yaml:"legendary_base_chance"`
	LegendaryTrait       string    `yaml:"legendary_trait"`
	LegendaryBonus       float64   `yaml:"legendary_bonus"`
	ExtraTraitTrait      string    `yaml:"extra_trait_trait"`
	ExtraTraitChance     float64   `yaml:"extra_trait_chance"`
	IncubateStepPercent  float64   `yaml:"incubate_step_percent"`
	RarityKeepChance     float64   `yaml:"rarity_keep_chance"`
	RarityUpChance       float64   `yaml:"rarity_up_chance"`
	SurveySameTierChance float64   `yaml:"survey_same_tier_chance"`
	SurveyUpTierChance   float64   `yaml:"survey_up_tier_chance"`
}

type Offline struct {
	MinSec float64 `yaml:"min_sec"`
	MaxSec float64 `yaml:"max_sec"`
}

type Taps struct {
	SurveyFraction     float64 `yaml:"survey_fraction"`
	RestoreFraction    float64 `yaml:"restore_fraction"`
	RestoreCooldownSec float64 `yaml:"restore_cooldown_sec"`
}

type Unlocks struct {
	PerchCosts    []float64 `yaml:"perch_costs"`
	BreedingCosts []float64 `yaml:"breeding_costs"`
}

type Prestige struct {
	MinPerched  int `yaml:"min_perched"`
	MaxCrystals int `yaml:"max_crystals"`
}

// Defaults returns the built-in tuning. Load overlays a file on top of it.
func Defaults() Tuning {
	return Tuning{
		SaveVersion:      "sanctuary/1",
		TickRateHz:       60,
		AutosaveEverySec: 30,
		StatePushEveryMs: 250,
		StartingSeeds:    50,
		RarityCap:        8,
		Vitality: Vitality{
			Capacity:          []float64{100, 150, 200, 300, 400},
			DrainPerSec:       []float64{0.2, 0.2, 0.2, 0.25, 0.25},
			RestoreMultiplier: []float64{10, 4, 2, 1, 1},
			NominalRestoreSec: 3600,
		},
		Income: Income{
			BasePerSec: []float64{1, 3, 8, 20, 50},
		},
		Maturation: Maturation{
			MatureSec: []float64{120, 300, 600, 1200, 2400},
		},
		Breeding: Breeding{
			BaseDurationSec:      []float64{60, 300, 900, 2700, 7200},
			DurationTrait:        "Nurturing",
			DurationMultiplier:   0.75,
			LegendaryBaseChance:  0.10,
			LegendaryTrait:       "Mystic",
			LegendaryBonus:       0.05,
			ExtraTraitTrait:      "Gifted",
			ExtraTraitChance:     0.15,
			IncubateStepPercent:  1,
			RarityKeepChance:     0.6,
			RarityUpChance:       0.3,
			SurveySameTierChance: 0.5,
			SurveyUpTierChance:   0.3,
		},
		Offline: Offline{
			MinSec: 30,
			MaxSec: 24 * 60 * 60,
		},
		Taps: Taps{
			SurveyFraction:     0.01,
			RestoreFraction:    0.2,
			RestoreCooldownSec: 30,
		},
		Unlocks: Unlocks{
			PerchCosts:    []float64{0, 200, 1000, 5000, 25000},
			BreedingCosts: []float64{1000, 10000, 100000},
		},
		Prestige: Prestige{
			MinPerched:  5,
			MaxCrystals: 5,
		},
	}
}

// Load reads a tuning file over Defaults. Keys missing from the file keep their defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	tables := []struct {
		name string
		v    []float64
	}{
		{"vitality.capacity", t.Vitality.Capacity},
		{"vitality.drain_per_sec", t.Vitality.DrainPerSec},
		{"vitality.restore_multiplier", t.Vitality.RestoreMultiplier},
		{"income.base_per_sec", t.Income.BasePerSec},
		{"maturation.mature_sec", t.Maturation.MatureSec},
		{"breeding.base_duration_sec", t.Breeding.BaseDurationSec},
	}
	for _, tb := range tables {
		if len(tb.v) != Tiers {
			return fmt.Errorf("%s: want %d entries, got %d", tb.name, Tiers, len(tb.v))
		}
		for i, v := range tb.v {
			if v <= 0 {
				return fmt.Errorf("%s[%d]: must be positive", tb.name, i)
			}
		}
	}
	if t.TickRateHz <= 0 {
		return fmt.Errorf("tick_rate_hz: must be positive")
	}
	if t.RarityCap <= 0 {
		return fmt.Errorf("rarity_cap: must be positive")
	}
	if t.StartingSeeds < 0 {
		return fmt.Errorf("starting_seeds: must not be negative")
	}
	if t.Vitality.NominalRestoreSec <= 0 {
		return fmt.Errorf("vitality.nominal_restore_sec: must be positive")
	}
	if t.Offline.MaxSec < t.Offline.MinSec {
		return fmt.Errorf("offline: max_sec < min_sec")
	}
	if len(t.Unlocks.PerchCosts) == 0 {
		return fmt.Errorf("unlocks.perch_costs: empty")
	}
	if len(t.Unlocks.BreedingCosts) == 0 {
		return fmt.Errorf("unlocks.breeding_costs: empty")
	}
	if t.Breeding.RarityKeepChance+t.Breeding.RarityUpChance > 1 {
		return fmt.Errorf("breeding: rarity chances exceed 1")
	}
	if t.Breeding.SurveySameTierChance+t.Breeding.SurveyUpTierChance > 1 {
		return fmt.Errorf("breeding: survey tier chances exceed 1")
	}
	return nil
}

// Digest is a stable hash of the effective tuning, reported to clients in WELCOME.
func (t Tuning) Digest() string {
	b, err := yaml.Marshal(t)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// TierIndex maps a distinction to a table index, clamping out-of-range values.
func TierIndex(distinction int) int {
	if distinction < 1 {
		return 0
	}
	if distinction > Tiers {
		return Tiers - 1
	}
	return distinction - 1
}
