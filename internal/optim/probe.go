package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/nbodytree/internal/compute"
	"github.com/san-kum/nbodytree/internal/octree"
	"github.com/san-kum/nbodytree/internal/sim"
)

var ErrOverBudget = errors.New("optim: force error over budget")

const (
	ParamTheta = "theta"
	ParamDepth = "depth"
)

type Measurement struct {
	MeanError float64
	MaxError  float64
	Build     time.Duration
	Force     time.Duration
	Nodes     int
	MaxDepth  int
}

// Probe compares tree accelerations of a fixed system against the direct sum.
type Probe struct {
	sys       *sim.System
	worldSize float32
	params    compute.Params
	exact     []sim.Vec3
	out       []sim.Vec3
	backend   *compute.TreeBackend
}

func NewProbe(sys *sim.System, worldSize float32, params compute.Params) (*Probe, error) {
	p := &Probe{
		sys:       sys,
		worldSize: worldSize,
		params:    params,
		exact:     make([]sim.Vec3, sys.Len()),
		out:       make([]sim.Vec3, sys.Len()),
		backend:   compute.NewTreeBackend(),
	}
	if err := compute.NewCPUBackend().Accelerations(nil, sys.Positions, sys.Masses, params, p.exact); err != nil {
		return nil, fmt.Errorf("direct sum: %w", err)
	}
	return p, nil
}

func (p *Probe) Measure(theta float32, maxDepth int) (Measurement, error) {
	var m Measurement

	start := time.Now()
	tree, err := octree.NewBuilder(octree.WithMaxDepth(maxDepth)).Build(p.sys.Positions, p.sys.Masses, p.worldSize)
	if err != nil {
		return m, err
	}
	m.Build = time.Since(start)

	params := p.params
	params.Theta = theta
	start = time.Now()
	if err := p.backend.Accelerations(tree, p.sys.Positions, p.sys.Masses, params, p.out); err != nil {
		return m, err
	}
	m.Force = time.Since(start)

	st := tree.Stats()
	m.Nodes = st.Nodes
	m.MaxDepth = st.MaxDepth

	counted := 0
	for i, want := range p.exact {
		ref := float64(want.Len())
		if ref == 0 {
			continue
		}
		rel := float64(p.out[i].Sub(want).Len()) / ref
		m.MeanError += rel
		m.MaxError = math.Max(m.MaxError, rel)
		counted++
	}
	if counted > 0 {
		m.MeanError /= float64(counted)
	}
	return m, nil
}

// Objective scores a (theta, depth) pair by its build plus force time in
// microseconds, failing with ErrOverBudget when the mean relative error
// exceeds budget.
func (p *Probe) Objective(budget float64) Objective {
	return func(_ context.Context, params map[string]float64) (float64, error) {
		m, err := p.Measure(float32(params[ParamTheta]), int(params[ParamDepth]))
		if err != nil {
			return 0, err
		}
		if m.MeanError > budget {
			return 0, fmt.Errorf("%w: %.3g > %.3g", ErrOverBudget, m.MeanError, budget)
		}
		return float64((m.Build + m.Force).Microseconds()), nil
	}
}
