package octree

import (
	"fmt"

	"github.com/chewxy/math32"
)

const (
	// DefaultMaxDepth is the depth at which a second body turns a leaf into
	// an overflow list instead of splitting it.
	DefaultMaxDepth = 16

	// Unbounded disables the fixed depth cap. Cells are still never split
	// once float32 can no longer halve them.
	Unbounded = -1
)

type Option func(*Builder)

// WithMaxDepth sets the depth cap. A negative depth means Unbounded.
func WithMaxDepth(depth int) Option {
	return func(b *Builder) {
		if depth < 0 {
			depth = Unbounded
		}
		b.maxDepth = depth
	}
}

func WithUnboundedDepth() Option {
	return WithMaxDepth(Unbounded)
}

// WithCapacity pre-sizes the arena for about n bodies.
func WithCapacity(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.nodes = make([]Node, 0, 2*n+1)
		}
	}
}

// Builder owns the node arena and the overflow side lists. Reusing one
// Builder across steps keeps both allocated.
type Builder struct {
	maxDepth int
	nodes    []Node
	lists    overflowLists
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) MaxDepth() int { return b.maxDepth }

// Reset drops the previous tree while keeping the allocated storage.
func (b *Builder) Reset() {
	b.nodes = b.nodes[:0]
	b.lists.reset()
}

// Build constructs the tree for one step. The root cell is the cube of edge
// worldSize centered at (worldSize/2, worldSize/2, worldSize/2). The inputs
// are only read.
//
// The returned tree shares storage with b and is valid until the next call
// to Build or Reset.
func (b *Builder) Build(positions []Vec3, masses []float32, worldSize float32) (*Tree, error) {
	if err := checkInput(positions, masses, worldSize); err != nil {
		return nil, err
	}

	b.Reset()
	b.nodes = append(b.nodes, Node{})

	half := worldSize / 2
	center := Vec3{half, half, half}
	for i, p := range positions {
		b.insert(0, p, masses[i], center, half, 0)
	}

	lists := b.lists.len()
	b.nodes = b.lists.compact(b.nodes)

	return &Tree{
		Nodes:         b.nodes,
		WorldSize:     worldSize,
		MaxDepth:      b.maxDepth,
		Bodies:        len(positions),
		OverflowLists: lists,
	}, nil
}

// Build is a convenience wrapper that builds with a fresh Builder.
func Build(positions []Vec3, masses []float32, worldSize float32, opts ...Option) (*Tree, error) {
	opts = append([]Option{WithCapacity(len(positions))}, opts...)
	return NewBuilder(opts...).Build(positions, masses, worldSize)
}

func checkInput(positions []Vec3, masses []float32, worldSize float32) error {
	if len(positions) != len(masses) {
		return fmt.Errorf("%w: %d positions, %d masses", ErrLengthMismatch, len(positions), len(masses))
	}
	if !finite(worldSize) || worldSize <= 0 {
		return fmt.Errorf("%w: got %v", ErrWorldSize, worldSize)
	}
	for i, p := range positions {
		if !finite(p[0]) || !finite(p[1]) || !finite(p[2]) || !finite(masses[i]) {
			return &BodyError{Index: i, Wrapped: ErrNonFinite}
		}
	}
	return nil
}

func finite(f float32) bool {
	return !math32.IsNaN(f) && !math32.IsInf(f, 0)
}

// insert places one body under node idx, whose cell is given by center and
// half. Appending to b.nodes may move the arena, so nodes are always
// re-fetched by index after ensureChild.
func (b *Builder) insert(idx uint32, pos Vec3, mass float32, center Vec3, half float32, depth int) {
	n := &b.nodes[idx]

	switch n.State {
	case Empty:
		n.adopt(pos, mass)
		return
	case OverflowList:
		n.merge(pos, mass)
		b.lists.push(n, pos, mass)
		return
	}

	held, heldMass := n.CenterOfMass, n.TotalMass
	split := n.State == Body
	n.merge(pos, mass)

	if split && b.atLimit(depth, center, half) {
		n.State = OverflowList
		n.Children[0] = b.lists.open(idx)
		n.Children[1] = 0
		b.lists.push(n, held, heldMass)
		b.lists.push(n, pos, mass)
		return
	}

	oct := Octant(center, pos)
	child := b.ensureChild(idx, oct)

	if split {
		b.nodes[idx].State = Interior
		heldOct := Octant(center, held)
		heldChild := b.ensureChild(idx, heldOct)
		b.insert(heldChild, held, heldMass, ChildCenter(center, half, heldOct), half/2, depth+1)
	}

	b.insert(child, pos, mass, ChildCenter(center, half, oct), half/2, depth+1)
}

func (b *Builder) ensureChild(idx uint32, oct int) uint32 {
	if c := b.nodes[idx].Children[oct]; c != 0 {
		return c
	}
	c := uint32(len(b.nodes))
	b.nodes = append(b.nodes, Node{})
	b.nodes[idx].Children[oct] = c
	return c
}

// atLimit reports whether a cell at depth must not be split.
func (b *Builder) atLimit(depth int, center Vec3, half float32) bool {
	if b.maxDepth != Unbounded && depth >= b.maxDepth {
		return true
	}
	q := half / 2
	if q == 0 {
		return true
	}
	for k := 0; k < 3; k++ {
		if center[k]+q == center[k] || center[k]-q == center[k] {
			return true
		}
	}
	return false
}
