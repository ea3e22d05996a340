package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/nbodytree/internal/sim"
)

func pair() *sim.System {
	sys := sim.NewSystem(2)
	sys.Positions[0] = sim.Vec3{0, 0, 0}
	sys.Positions[1] = sim.Vec3{2, 0, 0}
	sys.Velocities[0] = sim.Vec3{0, 1, 0}
	sys.Velocities[1] = sim.Vec3{0, -1, 0}
	sys.Masses[0] = 1
	sys.Masses[1] = 3
	return sys
}

func TestEnergy(t *testing.T) {
	m := NewEnergy(1, 0)
	m.Observe(pair(), 0)

	// kinetic 0.5*1*1 + 0.5*3*1, potential -1*3/2
	expected := 2.0 - 1.5
	if math.Abs(m.Value()-expected) > 1e-9 {
		t.Errorf("expected energy %f, got %f", expected, m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Errorf("expected 0 after reset, got %f", m.Value())
	}
}

func TestEnergySoftening(t *testing.T) {
	hard := NewEnergy(1, 0)
	soft := NewEnergy(1, 1)
	hard.Observe(pair(), 0)
	soft.Observe(pair(), 0)

	if soft.Last() <= hard.Last() {
		t.Errorf("softening should raise the potential: hard %f, soft %f", hard.Last(), soft.Last())
	}
}

func TestEnergyDrift(t *testing.T) {
	m := NewEnergyDrift(1, 0)
	sys := pair()
	m.Observe(sys, 0)
	if m.Value() != 0 {
		t.Errorf("expected no drift after one sample, got %f", m.Value())
	}

	sys.Velocities[0] = sim.Vec3{0, 2, 0}
	m.Observe(sys, 1)
	// energy goes from 0.5 to 2.0
	if math.Abs(m.Value()-3.0) > 1e-9 {
		t.Errorf("expected drift 3, got %f", m.Value())
	}
}

func TestMomentum(t *testing.T) {
	m := NewMomentum()
	sys := pair()
	m.Observe(sys, 0)
	sys.Velocities[1] = sim.Vec3{0, 0, 0}
	m.Observe(sys, 1)

	if math.Abs(m.Value()-3) > 1e-9 {
		t.Errorf("expected momentum change 3, got %f", m.Value())
	}
}

func TestContainment(t *testing.T) {
	m := NewContainment(10)
	sys := pair()
	m.Observe(sys, 0)
	sys.Positions[1] = sim.Vec3{11, 0, 0}
	m.Observe(sys, 1)

	if m.Value() != 0.5 {
		t.Errorf("expected 0.5, got %f", m.Value())
	}
	m.Reset()
	if m.Value() != 1 {
		t.Errorf("expected 1 after reset, got %f", m.Value())
	}
}
