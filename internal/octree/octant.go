package octree

// Octant bits. Bit 2 is the x axis, bit 0 the z axis; a set bit means the
// point is at or above the cell center on that axis.
const (
	OctantX = 0b100
	OctantY = 0b010
	OctantZ = 0b001
)

// Octant returns the 3-bit child code of p relative to center. Ties go to
// the upper octant.
func Octant(center, p Vec3) int {
	oct := 0
	if p[0] >= center[0] {
		oct |= OctantX
	}
	if p[1] >= center[1] {
		oct |= OctantY
	}
	if p[2] >= center[2] {
		oct |= OctantZ
	}
	return oct
}

// ChildCenter returns the center of child cell oct of a cell with the given
// center and half extent. The child's half extent is half/2.
func ChildCenter(center Vec3, half float32, oct int) Vec3 {
	q := half / 2
	return Vec3{
		center[0] + q*axisSign(oct, OctantX),
		center[1] + q*axisSign(oct, OctantY),
		center[2] + q*axisSign(oct, OctantZ),
	}
}

func axisSign(oct, bit int) float32 {
	if oct&bit != 0 {
		return 1
	}
	return -1
}
