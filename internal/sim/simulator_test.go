package sim

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/san-kum/nbodytree/internal/compute"
	"github.com/san-kum/nbodytree/internal/octree"
)

// testIntegrator is semi-implicit Euler.
type testIntegrator struct{ resets int }

func (t *testIntegrator) Name() string { return "test" }
func (t *testIntegrator) Reset()       { t.resets++ }
func (t *testIntegrator) Step(sys *System, accel AccelFunc, dt float32) error {
	acc := make([]Vec3, sys.Len())
	if err := accel(sys, acc); err != nil {
		return err
	}
	for i := range acc {
		sys.Velocities[i] = sys.Velocities[i].Add(acc[i].Mul(dt))
		sys.Positions[i] = sys.Positions[i].Add(sys.Velocities[i].Mul(dt))
	}
	return nil
}

func quietLogger() log.FieldLogger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

func testSystem() *System {
	sys := NewSystem(4)
	copy(sys.Positions, []Vec3{
		{25, 25, 25},
		{75, 75, 25},
		{75, 25, 75},
		{25, 75, 75},
	})
	for i := range sys.Masses {
		sys.Masses[i] = 10
	}
	return sys
}

func testConfig() Config {
	return Config{
		Dt:        0.01,
		Steps:     10,
		WorldSize: 100,
		Params:    compute.Params{G: 1000, Softening: 0.01, Theta: 0.5, Workers: 1},
	}
}

func TestSimulatorRun(t *testing.T) {
	s := New(compute.NewTreeBackend(), &testIntegrator{}, WithLogger(quietLogger()))
	sys := testSystem()

	result, err := s.Run(context.Background(), sys, testConfig())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.StepsTaken != 10 || len(result.Steps) != 10 {
		t.Errorf("expected 10 steps, got %d (%d stats)", result.StepsTaken, len(result.Steps))
	}
	if sys.Positions[0] != (Vec3{25, 25, 25}) {
		t.Error("input system was modified")
	}
	if result.Final.Positions[0] == sys.Positions[0] {
		t.Error("bodies did not move")
	}

	// The four bodies fall towards the center symmetrically.
	d0 := result.Final.Positions[0].Sub(Vec3{50, 50, 50}).Len()
	d1 := result.Final.Positions[1].Sub(Vec3{50, 50, 50}).Len()
	if d0 >= sys.Positions[0].Sub(Vec3{50, 50, 50}).Len() {
		t.Error("body 0 did not move inward")
	}
	if diff := d0 - d1; diff > 1e-3 || diff < -1e-3 {
		t.Errorf("asymmetric fall: %v vs %v", d0, d1)
	}

	st := result.Steps[0]
	if st.Builds != 1 || st.Nodes != 5 || st.MaxDepth != 1 || st.Interior != 1 {
		t.Errorf("unexpected stats %+v", st)
	}
	if result.EnergyDrift > 1e-2 {
		t.Errorf("energy drift %v", result.EnergyDrift)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	s := New(compute.NewCPUBackend(), &testIntegrator{}, WithLogger(quietLogger()))

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"negative dt", func(c *Config) { c.Dt = -0.1 }},
		{"negative steps", func(c *Config) { c.Steps = -1 }},
		{"zero world", func(c *Config) { c.WorldSize = 0 }},
		{"negative theta", func(c *Config) { c.Params.Theta = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.modify(&cfg)
			_, err := s.Run(context.Background(), testSystem(), cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSimulatorInvalidSystem(t *testing.T) {
	s := New(compute.NewCPUBackend(), &testIntegrator{}, WithLogger(quietLogger()))
	sys := testSystem()
	sys.Masses = sys.Masses[:3]

	if _, err := s.Run(context.Background(), sys, testConfig()); !errors.Is(err, ErrInvalidSystem) {
		t.Errorf("expected ErrInvalidSystem, got %v", err)
	}
}

func TestSimulatorCancel(t *testing.T) {
	s := New(compute.NewTreeBackend(), &testIntegrator{}, WithLogger(quietLogger()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := s.Run(ctx, testSystem(), testConfig())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result == nil || result.StepsTaken != 0 {
		t.Errorf("expected an empty partial result, got %+v", result)
	}
}

type testMetric struct {
	count int
}

func (t *testMetric) Name() string                { return "test" }
func (t *testMetric) Observe(_ *System, _ float64) { t.count++ }
func (t *testMetric) Value() float64              { return float64(t.count) }
func (t *testMetric) Reset()                      { t.count = 0 }

type testObserver struct {
	trees []int
}

func (o *testObserver) OnStep(_ *System, tree *octree.Tree, st StepStats) {
	o.trees = append(o.trees, tree.Len())
}

func TestSimulatorMetricsAndObservers(t *testing.T) {
	integ := &testIntegrator{}
	s := New(compute.NewTreeBackend(), integ, WithLogger(quietLogger()))

	metric := &testMetric{}
	obs := &testObserver{}
	s.AddMetric(metric)
	s.AddObserver(obs)

	result, err := s.Run(context.Background(), testSystem(), testConfig())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.Metrics["test"] != 10 {
		t.Errorf("expected 10 observations, got %v", result.Metrics["test"])
	}
	if len(obs.trees) != 10 {
		t.Errorf("expected 10 observer calls, got %d", len(obs.trees))
	}
	if integ.resets != 1 {
		t.Errorf("expected integrator reset once, got %d", integ.resets)
	}
}

func TestSimulatorValidatesTrees(t *testing.T) {
	s := New(compute.NewTreeBackend(), &testIntegrator{}, WithLogger(quietLogger()))
	cfg := testConfig()
	cfg.ValidateTree = true

	sys := testSystem()
	sys.Positions[1] = sys.Positions[0]
	if _, err := s.Run(context.Background(), sys, cfg); err != nil {
		t.Fatalf("valid trees rejected: %v", err)
	}
}

type failingBackend struct{ *compute.CPUBackend }

var errBackend = errors.New("backend failed")

func (failingBackend) Accelerations(*octree.Tree, []Vec3, []float32, compute.Params, []Vec3) error {
	return errBackend
}

func TestSimulatorStepError(t *testing.T) {
	s := New(failingBackend{compute.NewCPUBackend()}, &testIntegrator{}, WithLogger(quietLogger()))

	result, err := s.Run(context.Background(), testSystem(), testConfig())
	var simErr *SimulationError
	if !errors.As(err, &simErr) {
		t.Fatalf("expected SimulationError, got %v", err)
	}
	if simErr.Step != 0 || !errors.Is(err, errBackend) {
		t.Errorf("unexpected error %v", err)
	}
	if result.StepsTaken != 0 {
		t.Errorf("expected no completed steps, got %d", result.StepsTaken)
	}
}

func TestEnsemble(t *testing.T) {
	e := NewEnsemble(func() (*Simulator, error) {
		return New(compute.NewTreeBackend(), &testIntegrator{}, WithLogger(quietLogger())), nil
	})

	systems := []*System{testSystem(), testSystem(), testSystem()}
	results, err := e.Run(context.Background(), systems, testConfig())
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	for i, r := range results {
		if r.StepsTaken != 10 {
			t.Errorf("run %d: %d steps", i, r.StepsTaken)
		}
		if r.Final.Positions[0] != results[0].Final.Positions[0] {
			t.Errorf("run %d diverged from run 0", i)
		}
	}
}

func TestEnsembleConstructorError(t *testing.T) {
	errNoBackend := errors.New("no backend")
	calls := 0
	var mu sync.Mutex
	e := NewEnsemble(func() (*Simulator, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 2 {
			return nil, errNoBackend
		}
		return New(compute.NewTreeBackend(), &testIntegrator{}, WithLogger(quietLogger())), nil
	})

	systems := []*System{testSystem(), testSystem(), testSystem()}
	results, err := e.Run(context.Background(), systems, testConfig())
	if !errors.Is(err, errNoBackend) {
		t.Fatalf("got %v, want the constructor error", err)
	}
	failed := 0
	for _, r := range results {
		if r == nil {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("%d runs missing, want 1", failed)
	}
}
