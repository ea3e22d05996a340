package sim

import (
	"time"

	"github.com/san-kum/nbodytree/internal/compute"
	"github.com/san-kum/nbodytree/internal/octree"
)

type Vec3 = octree.Vec3

// AccelFunc writes the acceleration of every body of sys into out.
type AccelFunc func(sys *System, out []Vec3) error

type Integrator interface {
	Name() string
	Step(sys *System, accel AccelFunc, dt float32) error
}

// Resetter is implemented by integrators that cache state between steps.
type Resetter interface {
	Reset()
}

type Metric interface {
	Name() string
	Observe(sys *System, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(sys *System, tree *octree.Tree, stats StepStats)
}

type Config struct {
	Dt        float32
	Steps     int
	WorldSize float32
	Params    compute.Params

	// ValidateState stops the run when a body becomes non-finite.
	ValidateState bool
	// ValidateTree checks every built tree against its bodies.
	ValidateTree bool
}

// StepStats describes one step. Tree figures are those of the last tree
// built during the step.
type StepStats struct {
	Step           int
	Time           float64
	Builds         int
	BuildTime      time.Duration
	ForceTime      time.Duration
	Nodes          int
	MaxDepth       int
	Interior       int
	OverflowLists  int
	OverflowBodies int
	LongestRun     int
}

type Result struct {
	Steps       []StepStats
	StepsTaken  int
	Final       *System
	Metrics     map[string]float64
	EnergyStart float64
	EnergyEnd   float64
	EnergyDrift float64
	Elapsed     time.Duration
}
