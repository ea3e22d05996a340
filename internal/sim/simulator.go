package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/san-kum/nbodytree/internal/compute"
	"github.com/san-kum/nbodytree/internal/octree"
)

// Simulator rebuilds the octree every time accelerations are needed and
// hands them to the integrator. It reuses one octree.Builder, so it is not
// safe for concurrent use; see Ensemble.
type Simulator struct {
	builder    *octree.Builder
	backend    compute.Backend
	integrator Integrator
	metrics    []Metric
	observers  []Observer
	log        log.FieldLogger

	tree         *octree.Tree
	warnedDepth  bool
	validateTree bool
}

type Option func(*Simulator)

func WithBuilder(b *octree.Builder) Option {
	return func(s *Simulator) { s.builder = b }
}

func WithLogger(l log.FieldLogger) Option {
	return func(s *Simulator) { s.log = l }
}

func New(backend compute.Backend, integrator Integrator, opts ...Option) *Simulator {
	s := &Simulator{
		backend:    backend,
		integrator: integrator,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
		log:        log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.builder == nil {
		s.builder = octree.NewBuilder()
	}
	return s
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Backend() compute.Backend { return s.backend }
func (s *Simulator) Integrator() Integrator   { return s.integrator }

// Tree returns the last tree built. It is overwritten by the next step.
func (s *Simulator) Tree() *octree.Tree { return s.tree }

// Reset forgets cached integrator state, for use after sys was replaced.
func (s *Simulator) Reset() {
	if r, ok := s.integrator.(Resetter); ok {
		r.Reset()
	}
	for _, m := range s.metrics {
		m.Reset()
	}
	s.tree = nil
	s.warnedDepth = false
}

// Step advances sys by one step of cfg.Dt in place.
func (s *Simulator) Step(sys *System, cfg Config, step int) (StepStats, error) {
	st := StepStats{Step: step, Time: float64(step+1) * float64(cfg.Dt)}
	s.validateTree = cfg.ValidateTree

	accel := func(sys *System, out []Vec3) error {
		return s.accelerations(sys, cfg, out, &st)
	}
	if err := s.integrator.Step(sys, accel, cfg.Dt); err != nil {
		return st, err
	}

	if st.OverflowLists > 0 && !s.warnedDepth {
		s.warnedDepth = true
		s.log.WithFields(log.Fields{
			"step":       step,
			"lists":      st.OverflowLists,
			"bodies":     st.OverflowBodies,
			"longestRun": st.LongestRun,
		}).Warn("bodies share a cell at the depth cap")
	}
	return st, nil
}

func (s *Simulator) accelerations(sys *System, cfg Config, out []Vec3, st *StepStats) error {
	start := time.Now()
	tree, err := s.builder.Build(sys.Positions, sys.Masses, cfg.WorldSize)
	if err != nil {
		return fmt.Errorf("build tree: %w", err)
	}
	st.BuildTime += time.Since(start)
	st.Builds++
	s.tree = tree

	ts := tree.Stats()
	st.Nodes = ts.Nodes
	st.MaxDepth = ts.MaxDepth
	st.Interior = ts.Interior
	st.OverflowLists = ts.OverflowLists
	st.OverflowBodies = ts.OverflowBodies
	st.LongestRun = ts.LongestRun

	if s.validateTree {
		if err := tree.Validate(sys.Positions, sys.Masses, 1e-3); err != nil {
			return err
		}
	}

	start = time.Now()
	if err := s.backend.Accelerations(tree, sys.Positions, sys.Masses, cfg.Params, out); err != nil {
		return fmt.Errorf("%s accelerations: %w", s.backend.Name(), err)
	}
	st.ForceTime += time.Since(start)
	return nil
}

// Run steps a copy of sys0 cfg.Steps times. On cancellation or a step error
// the partial result is returned with the error.
func (s *Simulator) Run(ctx context.Context, sys0 *System, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if err := sys0.Validate(); err != nil {
		return nil, err
	}

	s.Reset()
	started := time.Now()

	sys := sys0.Clone()
	result := &Result{
		Steps:   make([]StepStats, 0, cfg.Steps),
		Final:   sys,
		Metrics: make(map[string]float64),
	}
	defer func() {
		result.Elapsed = time.Since(started)
		for _, m := range s.metrics {
			result.Metrics[m.Name()] = m.Value()
		}
	}()

	result.EnergyStart = s.energy(sys, cfg)
	s.log.WithFields(log.Fields{
		"bodies":     sys.Len(),
		"steps":      cfg.Steps,
		"backend":    s.backend.Name(),
		"integrator": s.integrator.Name(),
	}).Info("starting run")

	for i := 0; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		st, err := s.Step(sys, cfg, i)
		if err != nil {
			return result, &SimulationError{Step: i, Time: st.Time, Wrapped: err}
		}
		if cfg.ValidateState && !sys.IsValid() {
			return result, &SimulationError{Step: i, Time: st.Time, Wrapped: ErrUnstable}
		}

		result.Steps = append(result.Steps, st)
		result.StepsTaken++

		for _, m := range s.metrics {
			m.Observe(sys, st.Time)
		}
		for _, obs := range s.observers {
			obs.OnStep(sys, s.tree, st)
		}

		s.log.WithFields(log.Fields{
			"step":  i,
			"nodes": st.Nodes,
			"depth": st.MaxDepth,
			"build": st.BuildTime,
			"force": st.ForceTime,
		}).Debug("step")
	}

	result.EnergyEnd = s.energy(sys, cfg)
	if result.EnergyStart != 0 {
		result.EnergyDrift = math.Abs(result.EnergyEnd-result.EnergyStart) / math.Abs(result.EnergyStart)
	}
	s.log.WithFields(log.Fields{
		"steps": result.StepsTaken,
		"drift": result.EnergyDrift,
	}).Info("run finished")
	return result, nil
}

func (s *Simulator) validateConfig(cfg Config) error {
	if !(cfg.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %v", ErrInvalidConfig, cfg.Dt)
	}
	if cfg.Steps < 0 {
		return fmt.Errorf("%w: steps must not be negative, got %d", ErrInvalidConfig, cfg.Steps)
	}
	if !(cfg.WorldSize > 0) {
		return fmt.Errorf("%w: world size must be positive, got %v", ErrInvalidConfig, cfg.WorldSize)
	}
	if cfg.Params.Theta < 0 || cfg.Params.Softening < 0 {
		return fmt.Errorf("%w: theta and softening must not be negative", ErrInvalidConfig)
	}
	return nil
}

func (s *Simulator) energy(sys *System, cfg Config) float64 {
	k, p := sys.Energy(cfg.Params.G, cfg.Params.Softening)
	return k + p
}
