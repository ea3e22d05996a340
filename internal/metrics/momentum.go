package metrics

import (
	"math"

	"github.com/san-kum/nbodytree/internal/sim"
)

// Momentum reports the largest change of total linear momentum seen since
// the first observation. Pairwise forces cancel exactly, so any change
// comes from the tree approximation or rounding.
type Momentum struct {
	name     string
	initial  [3]float64
	maxDelta float64
	samples  int
}

func NewMomentum() *Momentum {
	return &Momentum{name: "momentum_drift"}
}

func (m *Momentum) Name() string { return m.name }

func (m *Momentum) Observe(sys *sim.System, t float64) {
	p := sys.Momentum()
	if m.samples == 0 {
		m.initial = p
	}
	m.samples++

	var d2 float64
	for k := 0; k < 3; k++ {
		d := p[k] - m.initial[k]
		d2 += d * d
	}
	m.maxDelta = math.Max(m.maxDelta, math.Sqrt(d2))
}

func (m *Momentum) Value() float64 { return m.maxDelta }

func (m *Momentum) Reset() {
	m.initial = [3]float64{}
	m.maxDelta = 0
	m.samples = 0
}
