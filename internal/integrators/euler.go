package integrators

import "github.com/san-kum/nbodytree/internal/sim"

// Euler is the semi-implicit (symplectic) Euler step: velocities are kicked
// with the current accelerations, then positions drift with the new
// velocities.
type Euler struct {
	pool *sim.VecPool
}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Step(sys *sim.System, accel sim.AccelFunc, dt float32) error {
	n := sys.Len()
	if e.pool == nil || e.pool.Size() != n {
		e.pool = sim.NewVecPool(n)
	}
	acc := e.pool.Get()
	defer e.pool.Put(acc)

	if err := accel(sys, acc); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		sys.Velocities[i] = sys.Velocities[i].Add(acc[i].Mul(dt))
		sys.Positions[i] = sys.Positions[i].Add(sys.Velocities[i].Mul(dt))
	}
	return nil
}
