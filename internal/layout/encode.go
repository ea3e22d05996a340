package layout

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/san-kum/nbodytree/internal/octree"
)

var le = binary.LittleEndian

// Encode returns nodes serialized in layout l.
func Encode(nodes []octree.Node, l Layout) []byte {
	return AppendEncode(make([]byte, 0, l.Size(len(nodes))), nodes, l)
}

// AppendEncode appends nodes to dst. Reusing dst across frames avoids a new
// allocation once it has grown to the largest tree.
func AppendEncode(dst []byte, nodes []octree.Node, l Layout) []byte {
	base := len(dst)
	need := base + l.Size(len(nodes))
	if cap(dst) < need {
		grown := make([]byte, base, need)
		copy(grown, dst)
		dst = grown
	}
	dst = dst[:need]
	clear(dst[base:])

	for i := range nodes {
		putNode(dst[base+i*l.Stride:], &nodes[i], l)
	}
	return dst
}

func putNode(rec []byte, n *octree.Node, l Layout) {
	putVec3(rec[l.CenterOfMass:], n.CenterOfMass)
	putVec3(rec[l.PosMin:], n.PosMin)
	putVec3(rec[l.PosMax:], n.PosMax)
	le.PutUint32(rec[l.Range:], math.Float32bits(n.Range))
	le.PutUint32(rec[l.TotalMass:], math.Float32bits(n.TotalMass))
	for k, c := range n.Children {
		le.PutUint32(rec[l.Children+4*k:], c)
	}
	le.PutUint32(rec[l.State:], uint32(n.State))
}

func putVec3(b []byte, v octree.Vec3) {
	le.PutUint32(b[0:], math.Float32bits(v[0]))
	le.PutUint32(b[4:], math.Float32bits(v[1]))
	le.PutUint32(b[8:], math.Float32bits(v[2]))
}

// Decode reads back a buffer produced by Encode with the same layout.
func Decode(buf []byte, l Layout) ([]octree.Node, error) {
	if len(buf)%l.Stride != 0 {
		return nil, fmt.Errorf("%w: %d bytes, stride %d", ErrShortBuffer, len(buf), l.Stride)
	}
	nodes := make([]octree.Node, len(buf)/l.Stride)
	for i := range nodes {
		rec := buf[i*l.Stride : (i+1)*l.Stride]
		n := &nodes[i]
		n.CenterOfMass = getVec3(rec[l.CenterOfMass:])
		n.PosMin = getVec3(rec[l.PosMin:])
		n.PosMax = getVec3(rec[l.PosMax:])
		n.Range = math.Float32frombits(le.Uint32(rec[l.Range:]))
		n.TotalMass = math.Float32frombits(le.Uint32(rec[l.TotalMass:]))
		for k := range n.Children {
			n.Children[k] = le.Uint32(rec[l.Children+4*k:])
		}
		n.State = octree.State(le.Uint32(rec[l.State:]))
	}
	return nodes, nil
}

func getVec3(b []byte) octree.Vec3 {
	return octree.Vec3{
		math.Float32frombits(le.Uint32(b[0:])),
		math.Float32frombits(le.Uint32(b[4:])),
		math.Float32frombits(le.Uint32(b[8:])),
	}
}
