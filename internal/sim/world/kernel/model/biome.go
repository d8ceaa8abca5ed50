package model

type Biome struct {
	ID       string
	Unlocked bool
	Foragers [3]ForagerSlot
	Survey   Survey
}

type ForagerSlot struct {
	Unlocked     bool
	Occupant     string
	AssignedAtMs int64
}

type Survey struct {
	Progress    float64
	Occupant    string
	UpdatedAtMs int64
}

// HighestUnlockedForager returns the index of the highest unlocked forager slot, or -1.
func (b *Biome) HighestUnlockedForager() int {
	for i := len(b.Foragers) - 1; i >= 0; i-- {
		if b.Foragers[i].Unlocked {
			return i
		}
	}
	return -1
}

// Reset returns the biome to its never-unlocked state.
func (b *Biome) Reset() {
	*b = Biome{ID: b.ID}
}

type Perch struct {
	Unlocked        bool
	Occupant        string
	CooldownUntilMs int64
}
