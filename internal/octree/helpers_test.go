package octree_test

import (
	"math/rand"

	"github.com/san-kum/nbodytree/internal/octree"
)

func uniformBodies(rng *rand.Rand, n int, lo, hi float32) ([]octree.Vec3, []float32) {
	positions := make([]octree.Vec3, n)
	masses := make([]float32, n)
	span := hi - lo
	for i := range positions {
		positions[i] = octree.Vec3{
			lo + span*rng.Float32(),
			lo + span*rng.Float32(),
			lo + span*rng.Float32(),
		}
		masses[i] = 0.5 + 499.5*rng.Float32()
	}
	return positions, masses
}

// clusteredBodies places n bodies inside a cube of edge spread around c, and
// duplicates every fifth position.
func clusteredBodies(rng *rand.Rand, n int, c octree.Vec3, spread float32) ([]octree.Vec3, []float32) {
	positions := make([]octree.Vec3, n)
	masses := make([]float32, n)
	for i := range positions {
		if i > 0 && i%5 == 0 {
			positions[i] = positions[i-1]
		} else {
			positions[i] = octree.Vec3{
				c[0] + spread*(rng.Float32()-0.5),
				c[1] + spread*(rng.Float32()-0.5),
				c[2] + spread*(rng.Float32()-0.5),
			}
		}
		masses[i] = 1 + rng.Float32()
	}
	return positions, masses
}

func countChildren(n *octree.Node) int {
	count := 0
	for _, c := range n.Children {
		if c != 0 {
			count++
		}
	}
	return count
}
