package config

import "sort"

var Presets = map[string]*Config{
	"galaxy": {
		Scenario: "disk", Bodies: 2000, Seed: 1, WorldSize: 100,
		Integrator: "leapfrog", Backend: "tree", Dt: 0.002, Steps: 500,
		Tree:    TreeConfig{MaxDepth: DefaultMaxDepth, Theta: 0.7, Layout: "wgsl"},
		Physics: PhysicsConfig{G: DefaultG, Softening: 0.05},
		Checks:  CheckConfig{ValidateState: true},
	},
	"degenerate": {
		Scenario: "coincident", Bodies: 64, Seed: 1, WorldSize: 100,
		Integrator: "euler", Backend: "tree", Dt: 0.01, Steps: 20,
		Tree:    TreeConfig{MaxDepth: DefaultMaxDepth, Theta: DefaultTheta, Layout: "wgsl"},
		Physics: PhysicsConfig{G: DefaultG, Softening: DefaultSoftening},
		Checks:  CheckConfig{ValidateTree: true, ValidateState: true},
	},
	"dense": {
		Scenario: "cluster", Bodies: 5000, Seed: 1, WorldSize: 100,
		Integrator: "leapfrog", Backend: "tree", Dt: 0.001, Steps: 50,
		Tree:    TreeConfig{MaxDepth: 12, Theta: DefaultTheta, Layout: "packed"},
		Physics: PhysicsConfig{G: DefaultG, Softening: 0.001},
		Checks:  CheckConfig{ValidateState: true},
	},
	"classic": {
		Scenario: "uniform", Bodies: DefaultBodies, Seed: 1, WorldSize: DefaultWorldSize,
		Integrator: "euler", Backend: "tree", Dt: 1, Steps: DefaultSteps,
		Tree:    TreeConfig{MaxDepth: DefaultMaxDepth, Theta: DefaultTheta, Layout: "wgsl"},
		Physics: PhysicsConfig{G: DefaultG, Softening: DefaultSoftening},
		Checks:  CheckConfig{ValidateState: true},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
