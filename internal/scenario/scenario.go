// Package scenario generates and loads initial body sets.
package scenario

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/san-kum/nbodytree/internal/sim"
)

var (
	ErrUnknownScenario = errors.New("scenario: unknown scenario")
	ErrBodyCount       = errors.New("scenario: body count must not be negative")
)

type settings struct {
	g float32
}

type Option func(*settings)

// WithG sets the gravitational constant used for orbital velocities.
func WithG(g float32) Option {
	return func(s *settings) { s.g = g }
}

type generator func(rng *rand.Rand, sys *sim.System, w float32, s settings)

var generators = map[string]generator{
	"uniform":    uniform,
	"cluster":    cluster,
	"coincident": coincident,
	"corners":    corners,
	"disk":       disk,
}

func Names() []string {
	names := make([]string, 0, len(generators))
	for name := range generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Generate builds n bodies for the named scenario inside a world cube of
// edge worldSize. The same seed always yields the same system.
func Generate(name string, n int, worldSize float32, seed int64, opts ...Option) (*sim.System, error) {
	gen, ok := generators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrBodyCount, n)
	}

	s := settings{g: 6.674}
	for _, opt := range opts {
		opt(&s)
	}

	sys := sim.NewSystem(n)
	gen(rand.New(rand.NewSource(seed)), sys, worldSize, s)
	return sys, nil
}

// uniform fills the middle third of the cube with masses in [0.5, 500).
func uniform(rng *rand.Rand, sys *sim.System, w float32, _ settings) {
	lo, span := w/3, w/3
	for i := range sys.Positions {
		sys.Positions[i] = sim.Vec3{
			lo + span*rng.Float32(),
			lo + span*rng.Float32(),
			lo + span*rng.Float32(),
		}
		sys.Masses[i] = 0.5 + 499.5*rng.Float32()
	}
}

// cluster is a tight Gaussian blob at the center, dense enough that many
// bodies reach the depth cap together.
func cluster(rng *rand.Rand, sys *sim.System, w float32, _ settings) {
	c := w / 2
	sigma := w * 1e-5
	for i := range sys.Positions {
		sys.Positions[i] = sim.Vec3{
			c + sigma*float32(rng.NormFloat64()),
			c + sigma*float32(rng.NormFloat64()),
			c + sigma*float32(rng.NormFloat64()),
		}
		sys.Masses[i] = 1 + rng.Float32()
	}
}

// coincident puts every body on one point off the cell centers.
func coincident(rng *rand.Rand, sys *sim.System, w float32, _ settings) {
	p := sim.Vec3{w / 10, w / 10, w / 10}
	for i := range sys.Positions {
		sys.Positions[i] = p
		sys.Masses[i] = 1 + rng.Float32()
	}
}

// corners places body i at the center of octant i%8 of the root cell.
func corners(_ *rand.Rand, sys *sim.System, w float32, _ settings) {
	lo, hi := w/4, 3*w/4
	for i := range sys.Positions {
		oct := i % 8
		p := sim.Vec3{lo, lo, lo}
		if oct&0b100 != 0 {
			p[0] = hi
		}
		if oct&0b010 != 0 {
			p[1] = hi
		}
		if oct&0b001 != 0 {
			p[2] = hi
		}
		sys.Positions[i] = p
		sys.Masses[i] = 1
	}
}

// disk is a thin rotating disk in the xy plane with a heavy central body.
// Each body gets the circular speed for the mass inside its radius.
func disk(rng *rand.Rand, sys *sim.System, w float32, s settings) {
	n := sys.Len()
	if n == 0 {
		return
	}
	c := w / 2
	radius := float64(w) / 4

	sys.Positions[0] = sim.Vec3{c, c, c}
	sys.Masses[0] = 1000

	type orbit struct {
		r, phi float64
		mass   float32
	}
	orbits := make([]orbit, n-1)
	for i := range orbits {
		orbits[i] = orbit{
			r:    radius * (0.1 + 0.9*math.Sqrt(rng.Float64())),
			phi:  2 * math.Pi * rng.Float64(),
			mass: 0.5 + rng.Float32(),
		}
	}
	sort.Slice(orbits, func(a, b int) bool { return orbits[a].r < orbits[b].r })

	enclosed := float64(sys.Masses[0])
	for i, o := range orbits {
		enclosed += float64(o.mass)
		v := math.Sqrt(float64(s.g) * enclosed / o.r)
		sin, cos := math.Sincos(o.phi)

		k := i + 1
		sys.Positions[k] = sim.Vec3{
			c + float32(o.r*cos),
			c + float32(o.r*sin),
			c + float32(float64(w)*1e-3*rng.NormFloat64()),
		}
		sys.Velocities[k] = sim.Vec3{float32(-v * sin), float32(v * cos), 0}
		sys.Masses[k] = o.mass
	}
}
