package integrators

import (
	"fmt"

	"github.com/san-kum/nbodytree/internal/sim"
)

// New returns a fresh integrator by name. Integrators keep per-run scratch,
// so each Simulator needs its own.
func New(name string) (sim.Integrator, error) {
	switch name {
	case "euler":
		return NewEuler(), nil
	case "leapfrog", "kdk":
		return NewLeapfrog(), nil
	case "rk4":
		return NewRK4(), nil
	}
	return nil, fmt.Errorf("integrators: unknown integrator %q", name)
}

func Names() []string { return []string{"euler", "leapfrog", "rk4"} }
