package model

// Specimen is a bird owned by the registry. Other components refer to it only by ID.
type Specimen struct {
	ID          string
	Species     string
	Distinction int // 1..5
	Biome       string
	Traits      []string

	Vitality         float64 // 0..capacity(Distinction)
	IsMature         bool
	MaturityProgress float64 // 0..100

	Location    Location
	IsLegendary bool
	BornAtMs    int64
}

// Unused reports whether the specimen sits in a role the rarity cap may reclaim from.
func (s *Specimen) Unused() bool {
	return s.Location.Kind == LocCollection || s.Location.Kind == LocPerch
}

// Working reports whether the specimen drains vitality.
func (s *Specimen) Working() bool {
	return s.Location.Kind.Working()
}

func (s *Specimen) HasTrait(trait string) bool {
	for _, t := range s.Traits {
		if t == trait {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe to hand to callers outside the registry.
func (s *Specimen) Clone() Specimen {
	c := *s
	c.Traits = append([]string(nil), s.Traits...)
	return c
}
