// Package compute evaluates gravitational accelerations for a set of bodies.
//
// Two CPU backends are provided:
//
//   - cpu: exact pairwise sum, O(n²)
//   - tree: Barnes–Hut traversal of an [octree.Tree], O(n log n)
//
// Both read their inputs only and split the bodies across goroutines.
//
// # Example
//
//	backend, _ := compute.ByName("tree")
//	acc := make([]compute.Vec3, len(positions))
//	err := backend.Accelerations(tree, positions, masses, compute.DefaultParams(), acc)
//
// # GPU Upload
//
// Built with the opengl tag, [GLUploader] copies an encoded tree into a
// shader storage buffer every frame:
//
//	go build -tags opengl ./...
package compute
