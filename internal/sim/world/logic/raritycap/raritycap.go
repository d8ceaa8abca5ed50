// Package raritycap orders cull candidates for the per-tier population cap.
package raritycap

import "sort"

// Candidate is an unused specimen that may be culled.
type Candidate struct {
	ID               string
	IsMature         bool
	MaturityProgress float64
	Vitality         float64
}

// Less reports whether a is less valuable than b: immature first, then ascending
// maturity progress, then ascending vitality, then id.
func Less(a, b Candidate) bool {
	if a.IsMature != b.IsMature {
		return !a.IsMature
	}
	if a.MaturityProgress != b.MaturityProgress {
		return a.MaturityProgress < b.MaturityProgress
	}
	if a.Vitality != b.Vitality {
		return a.Vitality < b.Vitality
	}
	return a.ID < b.ID
}

// Victim returns the least valuable candidate.
func Victim(cands []Candidate) (Candidate, bool) {
	if len(cands) == 0 {
		return Candidate{}, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if Less(c, best) {
			best = c
		}
	}
	return best, true
}

// Order sorts candidates from least to most valuable.
func Order(cands []Candidate) {
	sort.Slice(cands, func(i, j int) bool { return Less(cands[i], cands[j]) })
}
