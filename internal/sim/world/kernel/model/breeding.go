package model

// OffspringPlan is the genetics rolled when an incubation starts.
type OffspringPlan struct {
	Species     string
	Distinction int
	Biome       string
	Traits      []string
}

type BreedingProgram struct {
	Unlocked bool
	Active   bool

	Parent1 string
	Parent2 string

	Progress    float64 // 0..100
	StartedAtMs int64
	DurationMs  float64

	Offspring *OffspringPlan
}

// Idle clears incubation state and keeps the unlock flag.
func (p *BreedingProgram) Idle() {
	*p = BreedingProgram{Unlocked: p.Unlocked}
}

func (p *BreedingProgram) HasParent(id string) bool {
	return id != "" && (p.Parent1 == id || p.Parent2 == id)
}
