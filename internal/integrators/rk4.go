package integrators

import "github.com/san-kum/nbodytree/internal/sim"

// RK4 is the classic fourth-order Runge-Kutta step on (x, v). It evaluates
// accelerations four times per step and is not symplectic.
type RK4 struct {
	kx, kv  [4][]sim.Vec3
	scratch *sim.System
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string { return "rk4" }

func (r *RK4) ensureScratch(n int) {
	if len(r.kx[0]) != n {
		for s := 0; s < 4; s++ {
			r.kx[s] = make([]sim.Vec3, n)
			r.kv[s] = make([]sim.Vec3, n)
		}
		r.scratch = sim.NewSystem(n)
	}
}

func (r *RK4) Step(sys *sim.System, accel sim.AccelFunc, dt float32) error {
	n := sys.Len()
	r.ensureScratch(n)
	copy(r.scratch.Masses, sys.Masses)

	steps := [4]float32{0, dt * 0.5, dt * 0.5, dt}
	for s := 0; s < 4; s++ {
		for i := 0; i < n; i++ {
			x, v := sys.Positions[i], sys.Velocities[i]
			if s > 0 {
				x = x.Add(r.kx[s-1][i].Mul(steps[s]))
				v = v.Add(r.kv[s-1][i].Mul(steps[s]))
			}
			r.scratch.Positions[i] = x
			r.scratch.Velocities[i] = v
			r.kx[s][i] = v
		}
		if err := accel(r.scratch, r.kv[s]); err != nil {
			return err
		}
	}

	dt6 := dt / 6
	for i := 0; i < n; i++ {
		dx := r.kx[0][i].Add(r.kx[1][i].Mul(2)).Add(r.kx[2][i].Mul(2)).Add(r.kx[3][i])
		dv := r.kv[0][i].Add(r.kv[1][i].Mul(2)).Add(r.kv[2][i].Mul(2)).Add(r.kv[3][i])
		sys.Positions[i] = sys.Positions[i].Add(dx.Mul(dt6))
		sys.Velocities[i] = sys.Velocities[i].Add(dv.Mul(dt6))
	}
	return nil
}
