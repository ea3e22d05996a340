package compute

import (
	"github.com/san-kum/nbodytree/internal/octree"
)

// CPUBackend sums every pair directly. It ignores the tree and serves as the
// reference for the tree backend.
type CPUBackend struct{}

func NewCPUBackend() *CPUBackend { return &CPUBackend{} }

func (c *CPUBackend) Name() string    { return "cpu" }
func (c *CPUBackend) Available() bool { return true }
func (c *CPUBackend) Cleanup()        {}

func (c *CPUBackend) Accelerations(_ *octree.Tree, positions []Vec3, masses []float32, p Params, out []Vec3) error {
	if err := checkLengths(positions, masses, out); err != nil {
		return err
	}
	eps2 := p.Softening * p.Softening
	n := len(positions)

	parallelFor(n, p.Workers, func(start, end int) {
		for i := start; i < end; i++ {
			var acc Vec3
			pi := positions[i]
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				acc = acc.Add(pull(pi, positions[j], masses[j], eps2))
			}
			out[i] = acc.Mul(p.G)
		}
	})
	return nil
}
