package model

type Ledger struct {
	Seeds            float64
	TotalSeedsEarned float64
}

type Prestige struct {
	Crystals []string // biome ids, in award order
	Count    int
}

func (p *Prestige) HasCrystal(biome string) bool {
	for _, c := range p.Crystals {
		if c == biome {
			return true
		}
	}
	return false
}
