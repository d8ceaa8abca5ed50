package protocol

// StateView is the read model the UI renders.
type StateView struct {
	Seeds            float64 `json:"seeds"`
	TotalSeedsEarned float64 `json:"total_seeds_earned"`
	IncomePerSec     float64 `json:"income_per_sec"`

	Crystals      []string `json:"crystals"`
	PrestigeCount int      `json:"prestige_count"`

	Biomes    []BiomeView    `json:"biomes"`
	Perches   []PerchView    `json:"perches"`
	Breeding  []BreedingView `json:"breeding"`
	Specimens []SpecimenView `json:"specimens"`

	CataloguedSpecies   []string `json:"catalogued_species"`
	LegendariesAcquired []string `json:"legendaries_acquired"`
	Milestones          []string `json:"milestones"`
}

type BiomeView struct {
	ID             string        `json:"id"`
	Unlocked       bool          `json:"unlocked"`
	Foragers       []ForagerView `json:"foragers"`
	Surveyor       string        `json:"surveyor,omitempty"`
	SurveyProgress float64       `json:"survey_progress"`
	SurveyCost     float64       `json:"survey_cost"`
	SurveyRate     float64       `json:"survey_rate"`
}

type ForagerView struct {
	Unlocked bool   `json:"unlocked"`
	Occupant string `json:"occupant,omitempty"`
}

type PerchView struct {
	Unlocked        bool   `json:"unlocked"`
	Occupant        string `json:"occupant,omitempty"`
	CooldownUntilMs int64  `json:"cooldown_until_ms,omitempty"`
}

type BreedingView struct {
	Unlocked    bool    `json:"unlocked"`
	Active      bool    `json:"active"`
	Parent1     string  `json:"parent1,omitempty"`
	Parent2     string  `json:"parent2,omitempty"`
	Progress    float64 `json:"progress"`
	DurationMs  float64 `json:"duration_ms,omitempty"`
	OffspringOf int     `json:"offspring_distinction,omitempty"`
}

type SpecimenView struct {
	ID               string   `json:"id"`
	Species          string   `json:"species"`
	Distinction      int      `json:"distinction"`
	Biome            string   `json:"biome"`
	Traits           []string `json:"traits"`
	Vitality         float64  `json:"vitality"`
	Capacity         float64  `json:"capacity"`
	IsMature         bool     `json:"is_mature"`
	MaturityProgress float64  `json:"maturity_progress"`
	Location         string   `json:"location"`
	IsLegendary      bool     `json:"is_legendary,omitempty"`
}
