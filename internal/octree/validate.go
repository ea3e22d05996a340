package octree

import (
	"cmp"
	"fmt"
	"math"
	"slices"
)

type aggregate struct {
	mass  float64
	wsum  [3]float64
	min   Vec3
	max   Vec3
	count int
}

func (a *aggregate) add(pos Vec3, mass float32) {
	m := float64(mass)
	a.mass += m
	for k := 0; k < 3; k++ {
		a.wsum[k] += float64(pos[k]) * m
	}
	if a.count == 0 {
		a.min, a.max = pos, pos
	} else {
		for k := 0; k < 3; k++ {
			a.min[k] = min(a.min[k], pos[k])
			a.max[k] = max(a.max[k], pos[k])
		}
	}
	a.count++
}

type leafBody struct {
	pos  Vec3
	mass float32
}

type validator struct {
	t      *Tree
	tol    float64
	seen   []bool
	leaves []leafBody
}

// Validate checks t against the bodies it was built from: mass and center of
// mass conservation at every aggregate node, bounding-box soundness, the
// octant partition of every interior node, the depth cap, and that every
// body is held by exactly one leaf. tol is a relative tolerance for the
// floating-point aggregates.
func (t *Tree) Validate(positions []Vec3, masses []float32, tol float64) error {
	if len(positions) != len(masses) {
		return fmt.Errorf("%w: %d positions, %d masses", ErrLengthMismatch, len(positions), len(masses))
	}
	if len(t.Nodes) == 0 {
		return &ValidationError{Property: "structure", Detail: "missing root"}
	}

	if len(positions) == 0 {
		if t.Nodes[0].State != Empty || len(t.Nodes) != 1 {
			return &ValidationError{Property: "structure", Detail: "tree over no bodies must be a single empty root"}
		}
		return nil
	}

	v := &validator{
		t:      t,
		tol:    tol,
		seen:   make([]bool, len(t.Nodes)),
		leaves: make([]leafBody, 0, len(positions)),
	}

	center, half := t.RootCell()
	if _, err := v.subtree(0, center, half, 0); err != nil {
		return err
	}

	for i, ok := range v.seen {
		if !ok {
			return &ValidationError{Property: "structure", Node: i, Detail: "node unreachable from root"}
		}
	}

	var want aggregate
	for i, p := range positions {
		want.add(p, masses[i])
	}
	if err := v.checkAggregate(0, &t.Nodes[0], want); err != nil {
		return err
	}

	return v.checkOccupancy(positions, masses)
}

func (v *validator) subtree(idx uint32, center Vec3, half float32, depth int) (aggregate, error) {
	var agg aggregate
	i := int(idx)
	if i >= len(v.t.Nodes) {
		return agg, &ValidationError{Property: "structure", Node: i, Detail: "index out of range"}
	}
	if v.seen[i] {
		return agg, &ValidationError{Property: "structure", Node: i, Detail: "node reached twice"}
	}
	v.seen[i] = true

	n := &v.t.Nodes[i]
	if err := v.checkDepth(i, n, depth); err != nil {
		return agg, err
	}

	switch n.State {
	case Empty:
		if i != 0 {
			return agg, &ValidationError{Property: "structure", Node: i, Detail: "empty node below the root"}
		}
		return agg, nil

	case Body:
		if n.Range != 0 || n.PosMin != n.CenterOfMass || n.PosMax != n.CenterOfMass {
			return agg, &ValidationError{Property: "bounding box", Node: i, Detail: "leaf bounds differ from its body"}
		}
		agg.add(n.CenterOfMass, n.TotalMass)
		v.leaves = append(v.leaves, leafBody{n.CenterOfMass, n.TotalMass})
		return agg, nil

	case Interior:
		for oct, c := range n.Children {
			if c == 0 {
				continue
			}
			first := len(v.leaves)
			sub, err := v.subtree(c, ChildCenter(center, half, oct), half/2, depth+1)
			if err != nil {
				return agg, err
			}
			if sub.count == 0 {
				return agg, &ValidationError{Property: "structure", Node: int(c), Detail: "interior child holds no bodies"}
			}
			for _, b := range v.leaves[first:] {
				if got := Octant(center, b.pos); got != oct {
					return agg, &ValidationError{
						Property: "spatial partition",
						Node:     int(c),
						Detail:   fmt.Sprintf("body %v belongs to octant %03b, found under %03b", b.pos, got, oct),
					}
				}
			}
			mergeAggregate(&agg, sub)
		}
		if agg.count < 2 {
			return agg, &ValidationError{Property: "structure", Node: i, Detail: "interior node with fewer than two bodies"}
		}

	case OverflowList:
		start, end := n.Run()
		if start <= 0 || start >= end || end > len(v.t.Nodes) {
			return agg, &ValidationError{Property: "structure", Node: i, Detail: fmt.Sprintf("bad overflow run [%d, %d)", start, end)}
		}
		if end-start < 2 {
			return agg, &ValidationError{Property: "structure", Node: i, Detail: "overflow run with fewer than two bodies"}
		}
		for j := start; j < end; j++ {
			if v.seen[j] {
				return agg, &ValidationError{Property: "single occupancy", Node: j, Detail: "overflow member reached twice"}
			}
			v.seen[j] = true
			m := &v.t.Nodes[j]
			if m.State != Body {
				return agg, &ValidationError{Property: "structure", Node: j, Detail: "overflow member is " + m.State.String()}
			}
			agg.add(m.CenterOfMass, m.TotalMass)
			v.leaves = append(v.leaves, leafBody{m.CenterOfMass, m.TotalMass})
		}

	default:
		return agg, &ValidationError{Property: "structure", Node: i, Detail: fmt.Sprintf("unknown state %d", n.State)}
	}

	return agg, v.checkAggregate(i, n, agg)
}

func mergeAggregate(dst *aggregate, src aggregate) {
	if src.count == 0 {
		return
	}
	if dst.count == 0 {
		*dst = src
		return
	}
	dst.mass += src.mass
	for k := 0; k < 3; k++ {
		dst.wsum[k] += src.wsum[k]
		dst.min[k] = min(dst.min[k], src.min[k])
		dst.max[k] = max(dst.max[k], src.max[k])
	}
	dst.count += src.count
}

func (v *validator) checkDepth(i int, n *Node, depth int) error {
	if v.t.MaxDepth == Unbounded {
		return nil
	}
	if depth > v.t.MaxDepth || (n.State == Interior && depth >= v.t.MaxDepth) {
		return &ValidationError{
			Property: "depth bound",
			Node:     i,
			Detail:   fmt.Sprintf("%s node at depth %d, cap %d", n.State, depth, v.t.MaxDepth),
		}
	}
	return nil
}

func (v *validator) checkAggregate(i int, n *Node, agg aggregate) error {
	if !v.close(float64(n.TotalMass), agg.mass) {
		return &ValidationError{
			Property: "conservation",
			Node:     i,
			Detail:   fmt.Sprintf("total mass %v, bodies sum to %v", n.TotalMass, agg.mass),
		}
	}
	if math.Abs(agg.mass) > v.tol {
		for k := 0; k < 3; k++ {
			want := agg.wsum[k] / agg.mass
			if !v.close(float64(n.CenterOfMass[k]), want) {
				return &ValidationError{
					Property: "conservation",
					Node:     i,
					Detail:   fmt.Sprintf("center of mass axis %d is %v, bodies give %v", k, n.CenterOfMass[k], want),
				}
			}
		}
	}
	for k := 0; k < 3; k++ {
		if agg.min[k] < n.PosMin[k] || agg.max[k] > n.PosMax[k] {
			return &ValidationError{
				Property: "bounding box",
				Node:     i,
				Detail:   fmt.Sprintf("bodies span [%v, %v], node bounds [%v, %v]", agg.min, agg.max, n.PosMin, n.PosMax),
			}
		}
	}
	if n.Range != maxComponent(n.PosMax.Sub(n.PosMin)) {
		return &ValidationError{Property: "bounding box", Node: i, Detail: "range is not the largest extent"}
	}
	return nil
}

func (v *validator) close(got, want float64) bool {
	return math.Abs(got-want) <= v.tol*math.Max(1, math.Abs(want))
}

func (v *validator) checkOccupancy(positions []Vec3, masses []float32) error {
	if len(v.leaves) != len(positions) {
		return &ValidationError{
			Property: "single occupancy",
			Detail:   fmt.Sprintf("%d leaves for %d bodies", len(v.leaves), len(positions)),
		}
	}

	want := make([]leafBody, len(positions))
	for i, p := range positions {
		want[i] = leafBody{p, masses[i]}
	}
	got := slices.Clone(v.leaves)
	slices.SortFunc(want, compareLeaf)
	slices.SortFunc(got, compareLeaf)

	for i := range want {
		if want[i] != got[i] {
			return &ValidationError{
				Property: "single occupancy",
				Detail:   fmt.Sprintf("body %v (mass %v) not held by any leaf", want[i].pos, want[i].mass),
			}
		}
	}
	return nil
}

func compareLeaf(a, b leafBody) int {
	for k := 0; k < 3; k++ {
		if c := cmp.Compare(a.pos[k], b.pos[k]); c != 0 {
			return c
		}
	}
	return cmp.Compare(a.mass, b.mass)
}
