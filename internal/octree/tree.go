package octree

// Tree is a finished, read-only node array. Nodes[0] is the root.
type Tree struct {
	Nodes         []Node
	WorldSize     float32
	MaxDepth      int
	Bodies        int
	OverflowLists int
}

func (t *Tree) Root() *Node { return &t.Nodes[0] }

func (t *Tree) Len() int { return len(t.Nodes) }

// RootCell returns the center and half extent of the world cube.
func (t *Tree) RootCell() (Vec3, float32) {
	h := t.WorldSize / 2
	return Vec3{h, h, h}, h
}

// Visit describes one node during a walk. Members of an overflow run report
// the cell of the node that owns the run and InRun set.
type Visit struct {
	Index  int
	Node   *Node
	Depth  int
	Center Vec3
	Half   float32
	InRun  bool
}

// Walk visits every reachable node depth first, children in octant order.
// Returning false from fn skips the node's children.
func (t *Tree) Walk(fn func(v Visit) bool) {
	if len(t.Nodes) == 0 {
		return
	}
	center, half := t.RootCell()
	stack := make([]Visit, 0, 64)
	stack = append(stack, Visit{Index: 0, Node: &t.Nodes[0], Center: center, Half: half})

	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !fn(v) {
			continue
		}

		switch v.Node.State {
		case Interior:
			for oct := 7; oct >= 0; oct-- {
				c := v.Node.Children[oct]
				if c == 0 {
					continue
				}
				stack = append(stack, Visit{
					Index:  int(c),
					Node:   &t.Nodes[c],
					Depth:  v.Depth + 1,
					Center: ChildCenter(v.Center, v.Half, oct),
					Half:   v.Half / 2,
				})
			}
		case OverflowList:
			start, end := v.Node.Run()
			for i := end - 1; i >= start; i-- {
				stack = append(stack, Visit{
					Index:  i,
					Node:   &t.Nodes[i],
					Depth:  v.Depth + 1,
					Center: v.Center,
					Half:   v.Half,
					InRun:  true,
				})
			}
		}
	}
}

// Stats summarizes the shape of a tree.
type Stats struct {
	Nodes          int
	Empty          int
	Bodies         int
	Interior       int
	OverflowLists  int
	OverflowBodies int
	MaxDepth       int
	LongestRun     int
}

func (t *Tree) Stats() Stats {
	s := Stats{Nodes: len(t.Nodes)}
	t.Walk(func(v Visit) bool {
		switch v.Node.State {
		case Empty:
			s.Empty++
		case Body:
			s.Bodies++
			if v.InRun {
				s.OverflowBodies++
				return true
			}
		case Interior:
			s.Interior++
		case OverflowList:
			s.OverflowLists++
			s.LongestRun = max(s.LongestRun, int(v.Node.Children[1]))
		}
		s.MaxDepth = max(s.MaxDepth, v.Depth)
		return true
	})
	return s
}

// Leaves returns the position and mass of every body held by the tree, in
// walk order.
func (t *Tree) Leaves() ([]Vec3, []float32) {
	positions := make([]Vec3, 0, t.Bodies)
	masses := make([]float32, 0, t.Bodies)
	t.Walk(func(v Visit) bool {
		if v.Node.State == Body {
			positions = append(positions, v.Node.CenterOfMass)
			masses = append(masses, v.Node.TotalMass)
		}
		return true
	})
	return positions, masses
}
