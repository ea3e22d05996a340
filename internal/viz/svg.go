package viz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chewxy/math32"

	"github.com/san-kum/nbodytree/internal/octree"
)

var (
	ErrUnknownPlane = errors.New("unknown plane")
	ErrEmptyTree    = errors.New("no tree to draw")
)

// Planes maps a plane name to the world axes drawn horizontally and
// vertically.
var Planes = map[string][2]int{
	"xy": {0, 1},
	"xz": {0, 2},
	"yz": {1, 2},
}

var depthColors = []string{"#444466", "#3a5f8a", "#2f7fa8", "#2aa0b8", "#33bfa0", "#66d17a", "#a6d94f", "#e0d040"}

func svgHeader(sb *strings.Builder, width, height float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)
}

// TreeSVG draws every interior and overflow cell of tree as a square and
// every body as a dot, projected onto plane and scaled to size pixels.
// Bodies held in overflow runs are drawn red.
func TreeSVG(tree *octree.Tree, plane string, size int) (string, error) {
	axes, ok := Planes[plane]
	if !ok {
		return "", fmt.Errorf("%w %q (want xy, xz or yz)", ErrUnknownPlane, plane)
	}
	if tree == nil || len(tree.Nodes) == 0 {
		return "", ErrEmptyTree
	}

	px := float64(size)
	scale := px / float64(tree.WorldSize)
	toX := func(v octree.Vec3) float64 { return float64(v[axes[0]]) * scale }
	toY := func(v octree.Vec3) float64 { return px - float64(v[axes[1]])*scale }

	var cells, bodies strings.Builder
	tree.Walk(func(v octree.Visit) bool {
		switch v.Node.State {
		case octree.Interior, octree.OverflowList:
			lo := v.Center.Sub(octree.Vec3{v.Half, v.Half, v.Half})
			side := float64(2*v.Half) * scale
			fmt.Fprintf(&cells, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" stroke="%s"/>
`, toX(lo), toY(lo)-side, side, side, depthColors[min(v.Depth, len(depthColors)-1)])

		case octree.Body:
			fill := "#00ff88"
			if v.InRun {
				fill = "#ff4444"
			}
			r := 1 + math32.Log10(1+math32.Abs(v.Node.TotalMass))
			fmt.Fprintf(&bodies, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s"/>
`, toX(v.Node.CenterOfMass), toY(v.Node.CenterOfMass), r, fill)
		}
		return true
	})

	var sb strings.Builder
	svgHeader(&sb, px, px)
	sb.WriteString(`<g fill="none" stroke-width="0.5">` + "\n")
	sb.WriteString(cells.String())
	sb.WriteString("</g>\n<g>\n")
	sb.WriteString(bodies.String())
	sb.WriteString("</g>\n</svg>\n")
	return sb.String(), nil
}

// CanvasSVG renders the lit sub-pixels of c as dots, scale pixels apart.
func CanvasSVG(c *Canvas, scale float64) string {
	if c == nil {
		return ""
	}
	sw, sh := c.PixelSize()

	var sb strings.Builder
	svgHeader(&sb, float64(sw)*scale, float64(sh)*scale)
	sb.WriteString(`<g fill="#00ff00">` + "\n")
	r := scale * 0.4
	for y := 0; y < sh; y++ {
		for x := 0; x < sw; x++ {
			if c.IsSet(x, y) {
				fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f"/>
`, float64(x)*scale+scale/2, float64(y)*scale+scale/2, r)
			}
		}
	}
	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}
