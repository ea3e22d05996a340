package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/nbodytree/internal/octree"
)

type ExportNode struct {
	Index        int        `json:"index"`
	State        string     `json:"state"`
	Depth        int        `json:"depth"`
	CenterOfMass [3]float32 `json:"center_of_mass"`
	PosMin       [3]float32 `json:"pos_min"`
	PosMax       [3]float32 `json:"pos_max"`
	Range        float32    `json:"range"`
	TotalMass    float32    `json:"total_mass"`
	Children     []uint32   `json:"children,omitempty"`
	InRun        bool       `json:"in_run,omitempty"`
}

type ExportTree struct {
	WorldSize float32      `json:"world_size"`
	MaxDepth  int          `json:"max_depth"`
	Stats     octree.Stats `json:"stats"`
	Nodes     []ExportNode `json:"nodes"`
}

// ExportJSON writes tree in walk order as indented JSON.
func ExportJSON(w io.Writer, tree *octree.Tree) error {
	data := ExportTree{
		WorldSize: tree.WorldSize,
		MaxDepth:  tree.MaxDepth,
		Stats:     tree.Stats(),
		Nodes:     make([]ExportNode, 0, tree.Len()),
	}

	tree.Walk(func(v octree.Visit) bool {
		n := v.Node
		en := ExportNode{
			Index:        v.Index,
			State:        n.State.String(),
			Depth:        v.Depth,
			CenterOfMass: n.CenterOfMass,
			PosMin:       n.PosMin,
			PosMax:       n.PosMax,
			Range:        n.Range,
			TotalMass:    n.TotalMass,
			InRun:        v.InRun,
		}
		if n.State == octree.Interior || n.State == octree.OverflowList {
			en.Children = append([]uint32(nil), n.Children[:]...)
		}
		data.Nodes = append(data.Nodes, en)
		return true
	})

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
