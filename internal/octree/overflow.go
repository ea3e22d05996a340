package octree

// overflowLists holds the bodies of every OverflowList node while the tree
// is being built. Run k belongs to node owners[k]; during construction that
// node's Children[0] is k and Children[1] the run length so far.
type overflowLists struct {
	owners []uint32
	runs   [][]Node
}

func (o *overflowLists) len() int { return len(o.owners) }

func (o *overflowLists) reset() {
	o.owners = o.owners[:0]
	o.runs = o.runs[:0]
}

// open starts an empty run for owner and returns its id. Runs left over from
// a previous build are truncated and reused.
func (o *overflowLists) open(owner uint32) uint32 {
	k := len(o.runs)
	if k < cap(o.runs) {
		o.runs = o.runs[:k+1]
		o.runs[k] = o.runs[k][:0]
	} else {
		o.runs = append(o.runs, nil)
	}
	o.owners = append(o.owners, owner)
	return uint32(k)
}

func (o *overflowLists) push(owner *Node, pos Vec3, mass float32) {
	k := owner.Children[0]
	o.runs[k] = append(o.runs[k], leaf(pos, mass))
	owner.Children[1]++
}

// compact appends every run to nodes as one contiguous block and patches the
// owner to point at it.
func (o *overflowLists) compact(nodes []Node) []Node {
	for k, run := range o.runs {
		owner := &nodes[o.owners[k]]
		owner.Children[0] = uint32(len(nodes))
		owner.Children[1] = uint32(len(run))
		nodes = append(nodes, run...)
	}
	return nodes
}
