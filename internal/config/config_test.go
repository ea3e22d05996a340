package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/nbodytree/internal/octree"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Bodies != 100 {
		t.Errorf("expected 100 bodies, got %d", cfg.Bodies)
	}
	if cfg.WorldSize != 100 {
		t.Errorf("expected world 100, got %v", cfg.WorldSize)
	}
	if cfg.Tree.MaxDepth != 16 {
		t.Errorf("expected max depth 16, got %d", cfg.Tree.MaxDepth)
	}
	if cfg.Physics.G != 6.674 {
		t.Errorf("expected G 6.674, got %v", cfg.Physics.G)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("degenerate")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Scenario != "coincident" {
		t.Errorf("expected scenario coincident, got %s", cfg.Scenario)
	}

	cfg.Bodies = 1
	if Presets["degenerate"].Bodies == 1 {
		t.Error("GetPreset returned the shared preset")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsValidate(t *testing.T) {
	for _, name := range ListPresets() {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"negative bodies", func(c *Config) { c.Bodies = -1 }},
		{"zero world", func(c *Config) { c.WorldSize = 0 }},
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"depth below unbounded", func(c *Config) { c.Tree.MaxDepth = -2 }},
		{"negative theta", func(c *Config) { c.Tree.Theta = -0.1 }},
		{"unknown layout", func(c *Config) { c.Tree.Layout = "std140" }},
		{"unknown backend", func(c *Config) { c.Backend = "cuda" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}

	cfg := DefaultConfig()
	cfg.Dt = 0
	if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestLoadSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")

	cfg := GetPreset("galaxy")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip changed config:\n got %+v\nwant %+v", loaded, cfg)
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := "bodies: 7\ntree:\n  max_depth: -1\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Bodies != 7 {
		t.Errorf("expected 7 bodies, got %d", cfg.Bodies)
	}
	if cfg.Tree.MaxDepth != octree.Unbounded {
		t.Errorf("expected unbounded depth, got %d", cfg.Tree.MaxDepth)
	}
	if cfg.Tree.Theta != DefaultTheta || cfg.Integrator != "leapfrog" {
		t.Error("omitted keys lost their defaults")
	}
}

func TestSimConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 3
	sc := cfg.SimConfig()

	if sc.Params.Workers != 3 || sc.Params.Theta != cfg.Tree.Theta || sc.WorldSize != cfg.WorldSize {
		t.Errorf("unexpected sim config %+v", sc)
	}
	if b := octree.NewBuilder(cfg.BuilderOptions()...); b.MaxDepth() != 16 {
		t.Errorf("expected builder depth 16, got %d", b.MaxDepth())
	}
}
