package sim

import "math"

// Energy returns the kinetic and softened potential energy of s, summed in
// float64 over every pair.
func (s *System) Energy(g, softening float32) (kinetic, potential float64) {
	eps2 := float64(softening) * float64(softening)
	n := s.Len()
	for i := 0; i < n; i++ {
		v := s.Velocities[i]
		kinetic += 0.5 * float64(s.Masses[i]) * float64(v.Dot(v))

		pi := s.Positions[i]
		for j := i + 1; j < n; j++ {
			pj := s.Positions[j]
			dx := float64(pj[0]) - float64(pi[0])
			dy := float64(pj[1]) - float64(pi[1])
			dz := float64(pj[2]) - float64(pi[2])
			r2 := dx*dx + dy*dy + dz*dz
			if r2 == 0 {
				continue
			}
			potential -= float64(g) * float64(s.Masses[i]) * float64(s.Masses[j]) / math.Sqrt(r2+eps2)
		}
	}
	return kinetic, potential
}

// Momentum returns the total linear momentum of s.
func (s *System) Momentum() [3]float64 {
	var p [3]float64
	for i, v := range s.Velocities {
		m := float64(s.Masses[i])
		for k := 0; k < 3; k++ {
			p[k] += m * float64(v[k])
		}
	}
	return p
}
