package viz

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/san-kum/nbodytree/internal/octree"
)

type Vec3 = octree.Vec3

// Camera looks at the world cube from a fixed distance along +z after
// rotating it about its center.
type Camera struct {
	Center           Vec3
	Extent           float32
	RotX, RotY, RotZ float32
	Zoom             float32
}

// NewCamera frames the cube of edge worldSize at the origin corner.
func NewCamera(worldSize float32) *Camera {
	h := worldSize / 2
	return &Camera{
		Center: Vec3{h, h, h},
		Extent: worldSize,
		RotX:   0.4,
		RotY:   -0.6,
		Zoom:   1,
	}
}

func (c *Camera) RotateX(a float32) { c.RotX += a }
func (c *Camera) RotateY(a float32) { c.RotY += a }
func (c *Camera) RotateZ(a float32) { c.RotZ += a }
func (c *Camera) ZoomIn()           { c.Zoom = math32.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math32.Max(0.1, c.Zoom/1.2) }

func (c *Camera) rotation() mgl32.Mat3 {
	return mgl32.Rotate3DZ(c.RotZ).Mul3(mgl32.Rotate3DY(c.RotY)).Mul3(mgl32.Rotate3DX(c.RotX))
}

// Project maps a world point to canvas sub-pixels. ok is false when the
// point falls behind the eye or off the canvas.
func (c *Camera) Project(p Vec3, sw, sh int) (x, y int, depth float32, ok bool) {
	return c.project(c.rotation(), p, sw, sh)
}

func (c *Camera) project(rot mgl32.Mat3, p Vec3, sw, sh int) (int, int, float32, bool) {
	const eye = 2.5
	q := rot.Mul3x1(p.Sub(c.Center).Mul(c.Zoom / c.Extent))
	if q.Z() >= eye-0.1 {
		return 0, 0, 0, false
	}
	scale := eye / (eye - q.Z())
	span := float32(min(sw, sh*2)) / 1.6
	sx := int(q.X()*scale*span) + sw/2
	sy := int(-q.Y()*scale*span/2) + sh/2
	return sx, sy, q.Z(), sx >= 0 && sx < sw && sy >= 0 && sy < sh
}

var cubeEdges = [12][2]int{
	{0, 1}, {1, 3}, {3, 2}, {2, 0},
	{4, 5}, {5, 7}, {7, 6}, {6, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// DrawCell outlines the cube with the given center and half extent. Corner
// k uses the octant bit convention of octree.ChildCenter.
func (c *Camera) DrawCell(cv *Canvas, center Vec3, half float32) {
	sw, sh := cv.PixelSize()
	rot := c.rotation()

	var xs, ys [8]int
	var vis [8]bool
	for k := 0; k < 8; k++ {
		corner := center
		for axis, bit := range [3]int{octree.OctantX, octree.OctantY, octree.OctantZ} {
			if k&bit != 0 {
				corner[axis] += half
			} else {
				corner[axis] -= half
			}
		}
		xs[k], ys[k], _, vis[k] = c.project(rot, corner, sw, sh)
	}
	for _, e := range cubeEdges {
		if vis[e[0]] || vis[e[1]] {
			cv.DrawLine(xs[e[0]], ys[e[0]], xs[e[1]], ys[e[1]])
		}
	}
}

// DrawPoints plots every point that projects onto the canvas and returns
// how many did.
func (c *Camera) DrawPoints(cv *Canvas, points []Vec3) int {
	sw, sh := cv.PixelSize()
	rot := c.rotation()
	drawn := 0
	for _, p := range points {
		if x, y, _, ok := c.project(rot, p, sw, sh); ok {
			cv.Set(x, y)
			drawn++
		}
	}
	return drawn
}
