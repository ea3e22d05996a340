package sim

import (
	"fmt"

	"github.com/chewxy/math32"
)

// System is the state of every body. The three slices are index-aligned.
type System struct {
	Positions  []Vec3
	Velocities []Vec3
	Masses     []float32
}

func NewSystem(n int) *System {
	return &System{
		Positions:  make([]Vec3, n),
		Velocities: make([]Vec3, n),
		Masses:     make([]float32, n),
	}
}

func (s *System) Len() int { return len(s.Positions) }

func (s *System) Clone() *System {
	c := NewSystem(s.Len())
	copy(c.Positions, s.Positions)
	copy(c.Velocities, s.Velocities)
	copy(c.Masses, s.Masses)
	return c
}

func (s *System) Validate() error {
	n := len(s.Positions)
	if len(s.Velocities) != n || len(s.Masses) != n {
		return fmt.Errorf("%w: %d positions, %d velocities, %d masses",
			ErrInvalidSystem, n, len(s.Velocities), len(s.Masses))
	}
	for i := range s.Masses {
		if !finite(s.Masses[i]) || s.Masses[i] < 0 {
			return fmt.Errorf("%w: body %d has mass %v", ErrInvalidSystem, i, s.Masses[i])
		}
	}
	if i := s.firstInvalid(); i >= 0 {
		return fmt.Errorf("%w: body %d is not finite", ErrInvalidSystem, i)
	}
	return nil
}

// IsValid reports whether every position and velocity is finite.
func (s *System) IsValid() bool { return s.firstInvalid() < 0 }

func (s *System) firstInvalid() int {
	for i := range s.Positions {
		p, v := s.Positions[i], s.Velocities[i]
		for k := 0; k < 3; k++ {
			if !finite(p[k]) || !finite(v[k]) {
				return i
			}
		}
	}
	return -1
}

func (s *System) TotalMass() float64 {
	var m float64
	for _, mi := range s.Masses {
		m += float64(mi)
	}
	return m
}

func finite(f float32) bool {
	return !math32.IsNaN(f) && !math32.IsInf(f, 0)
}
