package integrators

import "github.com/san-kum/nbodytree/internal/sim"

// Leapfrog is kick-drift-kick. The acceleration at the end of a step is
// kept for the first kick of the next one, so each step needs one
// evaluation after the first.
type Leapfrog struct {
	acc   []sim.Vec3
	valid bool
}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Name() string { return "leapfrog" }

// Reset drops the cached acceleration.
func (l *Leapfrog) Reset() { l.valid = false }

func (l *Leapfrog) Step(sys *sim.System, accel sim.AccelFunc, dt float32) error {
	n := sys.Len()
	if len(l.acc) != n {
		l.acc = make([]sim.Vec3, n)
		l.valid = false
	}
	if !l.valid {
		if err := accel(sys, l.acc); err != nil {
			return err
		}
		l.valid = true
	}

	halfDt := dt * 0.5
	for i := 0; i < n; i++ {
		sys.Velocities[i] = sys.Velocities[i].Add(l.acc[i].Mul(halfDt))
		sys.Positions[i] = sys.Positions[i].Add(sys.Velocities[i].Mul(dt))
	}

	if err := accel(sys, l.acc); err != nil {
		l.valid = false
		return err
	}
	for i := 0; i < n; i++ {
		sys.Velocities[i] = sys.Velocities[i].Add(l.acc[i].Mul(halfDt))
	}
	return nil
}
