// Package rng provides the random sources used for weighted rolls.
package rng

import (
	"math/rand/v2"
)

// Source is the random source consumed by the simulation.
type Source interface {
	// Float64 returns a value in [0,1).
	Float64() float64
	// IntN returns a value in [0,n). n must be positive.
	IntN(n int) int
}

// PCG is a seeded source whose state can be persisted and restored.
type PCG struct {
	pcg *rand.PCG
	r   *rand.Rand
}

func New(seed uint64) *PCG {
	p := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &PCG{pcg: p, r: rand.New(p)}
}

func (p *PCG) Float64() float64 { return p.r.Float64() }
func (p *PCG) IntN(n int) int   { return p.r.IntN(n) }

// State encodes the generator position for save files.
func (p *PCG) State() ([]byte, error) {
	return p.pcg.MarshalBinary()
}

// Restore rewinds the generator to a position captured by State.
func (p *PCG) Restore(state []byte) error {
	return p.pcg.UnmarshalBinary(state)
}

// Fixed replays a scripted sequence of floats, cycling when exhausted. Tests use it to
// force specific branches of weighted rolls.
type Fixed struct {
	Values []float64
	i      int
}

func NewFixed(values ...float64) *Fixed {
	return &Fixed{Values: values}
}

func (f *Fixed) Float64() float64 {
	if len(f.Values) == 0 {
		return 0
	}
	v := f.Values[f.i%len(f.Values)]
	f.i++
	return v
}

func (f *Fixed) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	i := int(f.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}
