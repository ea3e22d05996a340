package compute

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/san-kum/nbodytree/internal/octree"
)

type Vec3 = octree.Vec3

var (
	ErrUnavailable    = errors.New("compute: backend not available in this build")
	ErrUnknownBackend = errors.New("compute: unknown backend")
	ErrLengthMismatch = errors.New("compute: positions, masses and output differ in length")
	ErrNoTree         = errors.New("compute: backend needs a tree")
)

// Params are the physical and numerical constants of one evaluation.
type Params struct {
	G         float32
	Softening float32
	// Theta is the opening angle. A cell is used as a point mass when
	// range/distance < Theta; zero disables the approximation.
	Theta   float32
	Workers int
}

func DefaultParams() Params {
	return Params{
		G:         6.674,
		Softening: 0.01,
		Theta:     0.5,
		Workers:   runtime.NumCPU(),
	}
}

type Backend interface {
	Name() string
	Available() bool
	// Accelerations writes the acceleration of every body into out. The
	// tree must have been built from the same positions and masses.
	Accelerations(tree *octree.Tree, positions []Vec3, masses []float32, p Params, out []Vec3) error
	Cleanup()
}

func ByName(name string) (Backend, error) {
	switch name {
	case "cpu", "direct":
		return NewCPUBackend(), nil
	case "tree", "barneshut":
		return NewTreeBackend(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
}

func Names() []string { return []string{"cpu", "tree"} }

func checkLengths(positions []Vec3, masses []float32, out []Vec3) error {
	if len(positions) != len(masses) || len(out) != len(positions) {
		return fmt.Errorf("%w: %d positions, %d masses, %d outputs",
			ErrLengthMismatch, len(positions), len(masses), len(out))
	}
	return nil
}

// pull returns the softened acceleration that a mass m at q exerts on a body
// at p. Coincident points contribute nothing.
func pull(p, q Vec3, m, eps2 float32) Vec3 {
	d := q.Sub(p)
	r2 := d.Dot(d)
	if r2 == 0 {
		return Vec3{}
	}
	r2 += eps2
	inv := 1 / (r2 * sqrt(r2))
	return d.Mul(m * inv)
}
