package metrics

import (
	"math"

	"github.com/san-kum/nbodytree/internal/sim"
)

// Energy reports the mean total energy over the observed steps.
type Energy struct {
	name        string
	g           float32
	softening   float32
	samples     int
	totalEnergy float64
	last        float64
}

func NewEnergy(g, softening float32) *Energy {
	return &Energy{
		name:      "energy",
		g:         g,
		softening: softening,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(sys *sim.System, t float64) {
	k, p := sys.Energy(e.g, e.softening)
	e.last = k + p
	e.totalEnergy += e.last
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

// Last returns the energy at the most recent observation.
func (e *Energy) Last() float64 { return e.last }

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.last = 0
	e.samples = 0
}

// EnergyDrift reports the largest relative departure from the energy of the
// first observation.
type EnergyDrift struct {
	name          string
	g             float32
	softening     float32
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(g, softening float32) *EnergyDrift {
	return &EnergyDrift{
		name:      "energy_drift",
		g:         g,
		softening: softening,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(sys *sim.System, t float64) {
	k, p := sys.Energy(e.g, e.softening)
	energy := k + p

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
