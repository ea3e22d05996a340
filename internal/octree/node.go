package octree

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type Vec3 = mgl32.Vec3

// State tags a node. The numeric values are part of the buffer contract
// with the traversal kernel.
type State uint32

const (
	Empty        State = 0
	Body         State = 1
	OverflowList State = 2
	Interior     State = 3
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Body:
		return "body"
	case OverflowList:
		return "overflow"
	case Interior:
		return "interior"
	default:
		return "unknown"
	}
}

// Node is one record of the flat tree.
//
// For an Interior node Children holds up to eight indices into the node
// array, 0 meaning absent. For an OverflowList node Children[0] is the index
// of the first body of its run and Children[1] the run length.
type Node struct {
	CenterOfMass Vec3
	PosMin       Vec3
	PosMax       Vec3
	Range        float32
	TotalMass    float32
	Children     [8]uint32
	State        State
}

// Run returns the [start, end) span of an overflow node's body run.
func (n *Node) Run() (start, end int) {
	if n.State != OverflowList {
		return 0, 0
	}
	start = int(n.Children[0])
	return start, start + int(n.Children[1])
}

// IsLeaf reports whether the node has no spatial children.
func (n *Node) IsLeaf() bool {
	return n.State == Empty || n.State == Body
}

func (n *Node) adopt(pos Vec3, mass float32) {
	n.CenterOfMass = pos
	n.TotalMass = mass
	n.PosMin = pos
	n.PosMax = pos
	n.Range = 0
	n.State = Body
}

// merge folds a body into the aggregate. When the combined mass is zero the
// weighted average is undefined and the previous center of mass is kept.
func (n *Node) merge(pos Vec3, mass float32) {
	total := n.TotalMass + mass
	if total != 0 {
		sum := n.CenterOfMass.Mul(n.TotalMass).Add(pos.Mul(mass))
		n.CenterOfMass = Vec3{sum[0] / total, sum[1] / total, sum[2] / total}
	}
	n.TotalMass = total

	for k := 0; k < 3; k++ {
		n.PosMin[k] = math32.Min(n.PosMin[k], pos[k])
		n.PosMax[k] = math32.Max(n.PosMax[k], pos[k])
	}
	n.Range = maxComponent(n.PosMax.Sub(n.PosMin))
}

func maxComponent(v Vec3) float32 {
	return math32.Max(v[0], math32.Max(v[1], v[2]))
}

func leaf(pos Vec3, mass float32) Node {
	var n Node
	n.adopt(pos, mass)
	return n
}
