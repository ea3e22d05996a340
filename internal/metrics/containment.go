package metrics

import (
	"github.com/san-kum/nbodytree/internal/sim"
)

// Containment is the fraction of observed steps in which every body stayed
// inside the world cube. Bodies outside it are still placed in the tree but
// crowd the boundary cells.
type Containment struct {
	name       string
	worldSize  float32
	violations int
	samples    int
}

func NewContainment(worldSize float32) *Containment {
	return &Containment{
		name:      "containment",
		worldSize: worldSize,
	}
}

func (c *Containment) Name() string {
	return c.name
}

func (c *Containment) Observe(sys *sim.System, t float64) {
	c.samples++
	for _, p := range sys.Positions {
		if outside(p, c.worldSize) {
			c.violations++
			break
		}
	}
}

func outside(p sim.Vec3, w float32) bool {
	for k := 0; k < 3; k++ {
		if p[k] < 0 || p[k] > w {
			return true
		}
	}
	return false
}

func (c *Containment) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *Containment) Reset() {
	c.violations = 0
	c.samples = 0
}
