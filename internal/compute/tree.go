package compute

import (
	"github.com/san-kum/nbodytree/internal/octree"
)

// TreeBackend walks the flat node array once per body. It never writes to
// the tree, so bodies are evaluated in parallel.
type TreeBackend struct{}

func NewTreeBackend() *TreeBackend { return &TreeBackend{} }

func (b *TreeBackend) Name() string    { return "tree" }
func (b *TreeBackend) Available() bool { return true }
func (b *TreeBackend) Cleanup()        {}

func (b *TreeBackend) Accelerations(tree *octree.Tree, positions []Vec3, masses []float32, p Params, out []Vec3) error {
	if err := checkLengths(positions, masses, out); err != nil {
		return err
	}
	if tree == nil {
		return ErrNoTree
	}
	eps2 := p.Softening * p.Softening
	theta2 := p.Theta * p.Theta

	parallelFor(len(positions), p.Workers, func(start, end int) {
		stack := make([]uint32, 0, 64)
		for i := start; i < end; i++ {
			var acc Vec3
			acc, stack = walk(tree.Nodes, positions[i], theta2, eps2, stack)
			out[i] = acc.Mul(p.G)
		}
	})
	return nil
}

// walk returns the unscaled acceleration at pos. stack is scratch space and
// is returned so its capacity carries over to the next body.
func walk(nodes []octree.Node, pos Vec3, theta2, eps2 float32, stack []uint32) (Vec3, []uint32) {
	var acc Vec3
	stack = append(stack[:0], 0)

	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &nodes[idx]

		switch n.State {
		case octree.Empty:
			continue
		case octree.Body:
			acc = acc.Add(pull(pos, n.CenterOfMass, n.TotalMass, eps2))
			continue
		}

		// range/d < theta, compared squared.
		d := n.CenterOfMass.Sub(pos)
		d2 := d.Dot(d)
		if d2 > 0 && n.Range*n.Range < theta2*d2 {
			acc = acc.Add(pull(pos, n.CenterOfMass, n.TotalMass, eps2))
			continue
		}

		if n.State == octree.OverflowList {
			start, end := n.Run()
			for j := start; j < end; j++ {
				stack = append(stack, uint32(j))
			}
			continue
		}
		for _, c := range n.Children {
			if c != 0 {
				stack = append(stack, c)
			}
		}
	}
	return acc, stack
}
