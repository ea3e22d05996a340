package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/nbodytree/internal/compute"
	"github.com/san-kum/nbodytree/internal/layout"
	"github.com/san-kum/nbodytree/internal/octree"
	"github.com/san-kum/nbodytree/internal/sim"
)

const (
	DefaultBodies    = 100
	DefaultWorldSize = 100.0
	DefaultMaxDepth  = octree.DefaultMaxDepth
	DefaultTheta     = 0.5
	DefaultG         = 6.674
	DefaultSoftening = 0.01
	DefaultDt        = 0.01
	DefaultSteps     = 100

	DefaultScenario   = "uniform"
	DefaultIntegrator = "leapfrog"
	DefaultBackend    = "tree"
)

var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	Scenario   string        `yaml:"scenario"`
	Input      string        `yaml:"input,omitempty"`
	Bodies     int           `yaml:"bodies"`
	Seed       int64         `yaml:"seed"`
	WorldSize  float32       `yaml:"world_size"`
	Integrator string        `yaml:"integrator"`
	Backend    string        `yaml:"backend"`
	Dt         float32       `yaml:"dt"`
	Steps      int           `yaml:"steps"`
	Workers    int           `yaml:"workers,omitempty"`
	Tree       TreeConfig    `yaml:"tree"`
	Physics    PhysicsConfig `yaml:"physics"`
	Checks     CheckConfig   `yaml:"checks"`
}

type TreeConfig struct {
	// MaxDepth is the depth cap; -1 removes it.
	MaxDepth int     `yaml:"max_depth"`
	Theta    float32 `yaml:"theta"`
	Layout   string  `yaml:"layout"`
}

type PhysicsConfig struct {
	G         float32 `yaml:"g"`
	Softening float32 `yaml:"softening"`
}

type CheckConfig struct {
	ValidateTree  bool `yaml:"validate_tree"`
	ValidateState bool `yaml:"validate_state"`
}

func DefaultConfig() *Config {
	return &Config{
		Scenario:   DefaultScenario,
		Bodies:     DefaultBodies,
		Seed:       1,
		WorldSize:  DefaultWorldSize,
		Integrator: DefaultIntegrator,
		Backend:    DefaultBackend,
		Dt:         DefaultDt,
		Steps:      DefaultSteps,
		Tree: TreeConfig{
			MaxDepth: DefaultMaxDepth,
			Theta:    DefaultTheta,
			Layout:   layout.WGSL.Name,
		},
		Physics: PhysicsConfig{
			G:         DefaultG,
			Softening: DefaultSoftening,
		},
		Checks: CheckConfig{ValidateState: true},
	}
}

// Load reads a YAML file over the defaults, so omitted keys keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.Bodies >= 0, "bodies must not be negative, got %d", c.Bodies)
	check(c.WorldSize > 0, "world_size must be positive, got %v", c.WorldSize)
	check(c.Dt > 0, "dt must be positive, got %v", c.Dt)
	check(c.Steps >= 0, "steps must not be negative, got %d", c.Steps)
	check(c.Tree.MaxDepth >= octree.Unbounded, "tree.max_depth must be -1 or more, got %d", c.Tree.MaxDepth)
	check(c.Tree.Theta >= 0, "tree.theta must not be negative, got %v", c.Tree.Theta)
	check(c.Physics.Softening >= 0, "physics.softening must not be negative, got %v", c.Physics.Softening)

	if _, err := layout.ByName(c.Tree.Layout); err != nil {
		errs = append(errs, err)
	}
	if _, err := compute.ByName(c.Backend); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Config) Params() compute.Params {
	workers := c.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return compute.Params{
		G:         c.Physics.G,
		Softening: c.Physics.Softening,
		Theta:     c.Tree.Theta,
		Workers:   workers,
	}
}

func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		Dt:            c.Dt,
		Steps:         c.Steps,
		WorldSize:     c.WorldSize,
		Params:        c.Params(),
		ValidateState: c.Checks.ValidateState,
		ValidateTree:  c.Checks.ValidateTree,
	}
}

func (c *Config) BuilderOptions() []octree.Option {
	return []octree.Option{
		octree.WithMaxDepth(c.Tree.MaxDepth),
		octree.WithCapacity(c.Bodies),
	}
}

func (c *Config) Layout() (layout.Layout, error) {
	return layout.ByName(c.Tree.Layout)
}
