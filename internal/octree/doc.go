// Package octree builds the per-step Barnes–Hut octree over a set of point
// masses and exposes it as a flat, pointer-free node array.
//
// The array is an arena addressed by index: slot 0 is always the root and a
// child slot holding 0 means "no child in this octant". Each node carries the
// running mass aggregate of its subtree ([Node.TotalMass],
// [Node.CenterOfMass]) and the bounding box of the bodies under it
// ([Node.PosMin], [Node.PosMax], [Node.Range]).
//
// Bodies are inserted one at a time in input order. A node moves through the
// states [Empty] → [Body] → [Interior]; when a split would happen at the
// maximum depth the node becomes an [OverflowList] instead, and the bodies
// that land on it are kept in a side list. After the last insertion the side
// lists are appended to the array as contiguous runs and the owning node's
// Children[0] and Children[1] are patched to the run's start and length.
//
// # Example
//
//	b := octree.NewBuilder(octree.WithMaxDepth(16))
//	tree, err := b.Build(positions, masses, 100)
//	if err != nil {
//	    return err
//	}
//	root := tree.Root()
//
// # Thread Safety
//
// A [Builder] is NOT thread-safe and the [Tree] it returns shares storage
// with it until the next call to Build. A finished Tree is read-only and may
// be traversed from any number of goroutines.
package octree
