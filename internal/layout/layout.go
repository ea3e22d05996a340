// Package layout serializes an octree node array into the flat byte buffers
// a GPU kernel or a file reads back.
//
// Every layout is little-endian. Vectors are three float32 values, children
// eight uint32 values and the node state one uint32. Bytes not covered by a
// field are zero.
package layout

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrShortBuffer   = errors.New("layout: buffer is not a whole number of nodes")
	ErrUnknownLayout = errors.New("layout: unknown layout")
)

// Layout gives the stride of one node record and the byte offset of each
// field inside it.
type Layout struct {
	Name   string
	Stride int

	CenterOfMass int
	PosMin       int
	PosMax       int
	Range        int
	TotalMass    int
	Children     int
	State        int
}

var (
	// WGSL matches a WGSL storage buffer of
	//
	//	struct Node {
	//	    center_of_mass: vec3<f32>,
	//	    pos_min: vec3<f32>,
	//	    pos_max: vec3<f32>,
	//	    range: f32,
	//	    total_mass: f32,
	//	    children: array<u32, 8>,
	//	    node_type: u32,
	//	}
	//
	// where each vec3 is 16-byte aligned and range sits in the tail of
	// pos_max.
	WGSL = Layout{
		Name:         "wgsl",
		Stride:       96,
		CenterOfMass: 0,
		PosMin:       16,
		PosMax:       32,
		Range:        44,
		TotalMass:    48,
		Children:     52,
		State:        84,
	}

	// Padded gives every vec3 a full 16-byte slot.
	Padded = Layout{
		Name:         "padded",
		Stride:       96,
		CenterOfMass: 0,
		PosMin:       16,
		PosMax:       32,
		Range:        48,
		TotalMass:    52,
		Children:     56,
		State:        88,
	}

	// Packed has no padding at all.
	Packed = Layout{
		Name:         "packed",
		Stride:       80,
		CenterOfMass: 0,
		PosMin:       12,
		PosMax:       24,
		Range:        36,
		TotalMass:    40,
		Children:     44,
		State:        76,
	}
)

var layouts = map[string]Layout{
	WGSL.Name:   WGSL,
	Padded.Name: Padded,
	Packed.Name: Packed,
}

func ByName(name string) (Layout, error) {
	l, ok := layouts[name]
	if !ok {
		return Layout{}, fmt.Errorf("%w: %q", ErrUnknownLayout, name)
	}
	return l, nil
}

func Names() []string {
	names := make([]string, 0, len(layouts))
	for name := range layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Size returns the number of bytes n nodes occupy.
func (l Layout) Size(n int) int { return n * l.Stride }

func (l Layout) String() string { return l.Name }
